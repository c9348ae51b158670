package hos

import (
	"fmt"
	"math"

	"github.com/langchou/eldplanner/internal/models"
)

// PlacementMode 停靠点定位方式
type PlacementMode string

const (
	// PlaceEndpoints 在起终点之间直线插值
	PlaceEndpoints PlacementMode = "endpoints"
	// PlacePolyline 沿路线折线按弧长插值
	PlacePolyline PlacementMode = "polyline"
)

// ParsePlacementMode 解析配置值，未知值回退为 endpoints
func ParsePlacementMode(s string) PlacementMode {
	if PlacementMode(s) == PlacePolyline {
		return PlacePolyline
	}
	return PlaceEndpoints
}

const earthRadiusMiles = 3958.8

// Haversine 两点间大圆距离（英里）
func Haversine(a, b models.Coordinate) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusMiles * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// Locate 起终点之间按比例 f 线性插值
func Locate(start, end models.Coordinate, f float64) models.Coordinate {
	f = math.Max(0, math.Min(1, f))
	return models.Coordinate{
		Lat: start.Lat + (end.Lat-start.Lat)*f,
		Lng: start.Lng + (end.Lng-start.Lng)*f,
	}
}

// LocateAlong 沿折线走过总弧长的 f 比例，在所在线段内插值
func LocateAlong(path []models.Coordinate, f float64) models.Coordinate {
	switch len(path) {
	case 0:
		return models.Coordinate{}
	case 1:
		return path[0]
	}

	lengths := make([]float64, len(path)-1)
	total := 0.0
	for i := 1; i < len(path); i++ {
		lengths[i-1] = Haversine(path[i-1], path[i])
		total += lengths[i-1]
	}
	if total == 0 {
		return path[0]
	}

	target := math.Max(0, math.Min(1, f)) * total
	walked := 0.0
	for i, l := range lengths {
		if walked+l >= target {
			if l == 0 {
				return path[i]
			}
			return Locate(path[i], path[i+1], (target-walked)/l)
		}
		walked += l
	}
	return path[len(path)-1]
}

// PlaceStops 为计划中的休息点和加油点计算坐标
// 休息点在每个非最后一天的结束处；比例不在 (0,1) 内的点跳过
func PlaceStops(plan *models.TripPlan, geometry []models.Coordinate, mode PlacementMode) []models.Stop {
	stops := []models.Stop{}
	total := plan.Route.DistanceMiles
	if total <= 0 || len(geometry) == 0 {
		return stops
	}

	locate := func(f float64) models.Coordinate {
		if mode == PlacePolyline {
			return LocateAlong(geometry, f)
		}
		return Locate(geometry[0], geometry[len(geometry)-1], f)
	}
	add := func(kind string, day int, miles float64, label string) {
		f := miles / total
		if f <= 0 || f >= 1 {
			return
		}
		stops = append(stops, models.Stop{
			Type:       kind,
			Day:        day,
			Miles:      round1(miles),
			Fraction:   f,
			Coordinate: locate(f),
			Label:      label,
		})
	}

	cum := 0.0
	last := len(plan.DailyPlans) - 1
	for i, day := range plan.DailyPlans {
		if len(day.FuelStopMiles) > 0 {
			for _, m := range day.FuelStopMiles {
				add(models.StopTypeFuel, day.Day, m, fmt.Sprintf("Fuel stop (day %d)", day.Day))
			}
		} else {
			n := day.FuelStops
			for j := 0; j < n; j++ {
				m := cum + day.DistanceMiles*float64(j+1)/float64(n+1)
				add(models.StopTypeFuel, day.Day, m, fmt.Sprintf("Fuel stop (day %d)", day.Day))
			}
		}

		cum += day.DistanceMiles
		if i < last {
			add(models.StopTypeRest, day.Day, cum, fmt.Sprintf("10-hour rest (end of day %d)", day.Day))
		}
	}
	return stops
}
