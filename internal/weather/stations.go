package weather

// uvStations maps a region to the observation station reporting its UV index.
var uvStations = map[string]string{
	"新北市": "466850",
	"臺北市": "466910",
	"基隆市": "466940",
	"花蓮縣": "466990",
	"桃園市": "467050",
	"宜蘭縣": "467080",
	"金門縣": "467110",
	"彰化縣": "467270",
	"苗栗縣": "467280",
	"雲林縣": "467290",
	"澎湖縣": "467300",
	"臺南市": "467410",
	"高雄市": "467441",
	"嘉義市": "467480",
	"臺中市": "467490",
	"嘉義縣": "467530",
	"臺東縣": "467540",
	"南投縣": "467550",
	"新竹縣": "467571",
	"屏東縣": "467590",
	"連江縣": "467990",
	"新竹市": "C0D660",
}

// StationForRegion returns the UV station id for a region, if one is mapped.
func StationForRegion(region string) (string, bool) {
	id, ok := uvStations[region]
	return id, ok
}
