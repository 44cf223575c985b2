package domain

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownRegion = errors.New("unknown region")

// Regions lists the administrative regions a user may choose from.
var Regions = []string{
	"臺北市", "新北市", "桃園市", "臺中市", "臺南市", "高雄市",
	"宜蘭縣", "新竹縣", "苗栗縣", "彰化縣", "南投縣", "雲林縣",
	"嘉義縣", "屏東縣", "花蓮縣", "臺東縣", "澎湖縣",
	"基隆市", "新竹市", "嘉義市",
}

var regionSet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(Regions))
	for _, r := range Regions {
		m[r] = struct{}{}
	}
	return m
}()

// IsRegion reports whether name is one of Regions, exactly as written.
func IsRegion(name string) bool {
	_, ok := regionSet[name]
	return ok
}

// ParseRegion trims the input, accepts the common 台 spelling for 臺 and
// checks membership in Regions.
func ParseRegion(s string) (string, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "台") {
		s = "臺" + strings.TrimPrefix(s, "台")
	}
	if !IsRegion(s) {
		return "", fmt.Errorf("%w: %q", ErrUnknownRegion, s)
	}
	return s, nil
}
