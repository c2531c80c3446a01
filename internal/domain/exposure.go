package domain

import (
	"fmt"
	"math"
	"time"

	"github.com/golang/geo/s2"
)

// Exposure records a sensor lying inside a warning area.
type Exposure struct {
	SensorID      int       `json:"sensor_id"`
	SensorName    string    `json:"sensor_name"`
	Status        LevelCode `json:"status"`
	Warning       string    `json:"warning"`
	WarningID     int       `json:"warning_id"`
	WarningAreaID int       `json:"warning_area_id"`
	Timestamp     time.Time `json:"timestamp"`
}

// Key identifies an exposure independently of when it was observed.
func (e Exposure) Key() string {
	return fmt.Sprintf("%d|%d|%d|%s", e.SensorID, e.WarningID, e.WarningAreaID, e.Status)
}

// Notifiable reports whether the exposure is severe enough to alert on (ORANGE or RED).
func (e Exposure) Notifiable() bool {
	return e.Status.Rank() >= LevelOrange.Rank()
}

// FindExposures matches every positionable sensor against every renderable
// warning area. Results follow warning, area, then sensor input order.
func FindExposures(warnings []Warning, sensors []Sensor) []Exposure {
	now := clock.Now().UTC()

	var out []Exposure
	for _, w := range warnings {
		label := w.Event.Names.Get(LocaleEnglish)
		for _, area := range w.WarningAreas {
			if !area.Geometry.Valid() {
				continue
			}
			for _, s := range sensors {
				if !s.Positionable() || !area.Geometry.Contains(s.Latitude, s.Longitude) {
					continue
				}
				out = append(out, Exposure{
					SensorID:      s.ID,
					SensorName:    s.Name,
					Status:        area.WarningLevel.Code,
					Warning:       label,
					WarningID:     w.ID,
					WarningAreaID: area.ID,
					Timestamp:     now,
				})
			}
		}
	}
	return out
}

// SensorStatuses returns the highest level each sensor is exposed to.
// Sensors only covered by UNKNOWN-level areas are left out.
func SensorStatuses(exposures []Exposure) map[int]LevelCode {
	statuses := make(map[int]LevelCode)
	for _, e := range exposures {
		if e.Status.Rank() == 0 {
			continue
		}
		if cur, ok := statuses[e.SensorID]; !ok || e.Status.Rank() > cur.Rank() {
			statuses[e.SensorID] = e.Status
		}
	}
	return statuses
}

// Contains reports whether the point lies inside any polygon of g, outside
// that polygon's holes. Invalid geometries contain nothing.
func (g *Geometry) Contains(lat, lon float64) bool {
	if !g.Valid() {
		return false
	}
	pt := s2.PointFromLatLng(s2.LatLngFromDegrees(lat, lon))
	for _, poly := range g.Polygons {
		if polygonContains(poly, pt) {
			return true
		}
	}
	return false
}

func polygonContains(poly Polygon, pt s2.Point) bool {
	outer := ringLoop(poly[0])
	if outer == nil || !outer.ContainsPoint(pt) {
		return false
	}
	for _, hole := range poly[1:] {
		if loop := ringLoop(hole); loop != nil && loop.ContainsPoint(pt) {
			return false
		}
	}
	return true
}

// ringLoop builds an s2 loop from a GeoJSON ring. Winding order in the feed is
// not reliable, so a loop covering more than a hemisphere is inverted.
func ringLoop(r Ring) *s2.Loop {
	n := len(r)
	if n > 1 && r[n-1] == r[0] {
		n--
	}
	if n < 3 {
		return nil
	}

	points := make([]s2.Point, 0, n)
	for _, p := range r[:n] {
		points = append(points, s2.PointFromLatLng(s2.LatLngFromDegrees(p.Lat(), p.Lon())))
	}
	loop := s2.LoopFromPoints(points)
	if loop.Area() > 2*math.Pi {
		loop.Invert()
	}
	return loop
}
