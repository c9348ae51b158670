package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Value 实现 driver.Valuer 接口，以 JSONB 存储
func (r RouteSummary) Value() (driver.Value, error) {
	return json.Marshal(r)
}

// Scan 实现 sql.Scanner 接口
func (r *RouteSummary) Scan(value interface{}) error {
	return scanJSON(value, r)
}

// Value 实现 driver.Valuer 接口
func (p TripPlan) Value() (driver.Value, error) {
	return json.Marshal(p)
}

// Scan 实现 sql.Scanner 接口
func (p *TripPlan) Scan(value interface{}) error {
	return scanJSON(value, p)
}

// Value 实现 driver.Valuer 接口
func (c TripCoordinates) Value() (driver.Value, error) {
	return json.Marshal(c)
}

// Scan 实现 sql.Scanner 接口
func (c *TripCoordinates) Scan(value interface{}) error {
	return scanJSON(value, c)
}

// Value 实现 driver.Valuer 接口
func (g Grid) Value() (driver.Value, error) {
	return json.Marshal(g)
}

// Scan 实现 sql.Scanner 接口
func (g *Grid) Scan(value interface{}) error {
	return scanJSON(value, g)
}

func scanJSON(value interface{}, dst interface{}) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported jsonb source %T", value)
	}
	return json.Unmarshal(data, dst)
}
