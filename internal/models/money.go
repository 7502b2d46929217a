package models

import (
	"bytes"
	"fmt"
	"math"
	"strconv"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/x/bsonx/bsoncore"
	"gopkg.in/yaml.v3"
)

// Money is an amount in cents. It is exchanged over JSON as a decimal number
// with two places (30.00) and stored in Mongo as a double in reais.
type Money int64

// MoneyFromFloat rounds a decimal amount to the nearest cent.
func MoneyFromFloat(v float64) Money {
	return Money(math.Round(v * 100))
}

// Float64 returns the decimal value.
func (m Money) Float64() float64 {
	return float64(m) / 100
}

// String formats the amount as 38.00.
func (m Money) String() string {
	sign := ""
	v := int64(m)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// MarshalJSON writes the amount as a JSON number.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts a number, a numeric string or null.
func (m *Money) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	data = bytes.Trim(data, `"`)
	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("invalid money value %q: %w", string(data), err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("invalid money value %q", string(data))
	}
	*m = MoneyFromFloat(v)
	return nil
}

// UnmarshalYAML reads a decimal amount such as 38.5 from seed files.
func (m *Money) UnmarshalYAML(value *yaml.Node) error {
	var v float64
	if err := value.Decode(&v); err != nil {
		return fmt.Errorf("invalid money value %q: %w", value.Value, err)
	}
	*m = MoneyFromFloat(v)
	return nil
}

// MarshalBSONValue writes the amount as a double in reais, the layout existing
// profissionais and reservas documents already use.
func (m Money) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bsontype.Double, bsoncore.AppendDouble(nil, m.Float64()), nil
}

// UnmarshalBSONValue reads doubles, integers and Decimal128 values as reais.
func (m *Money) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	raw := bson.RawValue{Type: t, Value: data}
	switch t {
	case bsontype.Null, bsontype.Undefined:
		*m = 0
	case bsontype.Double:
		v, ok := raw.DoubleOK()
		if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("invalid money value %v", raw)
		}
		*m = MoneyFromFloat(v)
	case bsontype.Int32:
		v, ok := raw.Int32OK()
		if !ok {
			return fmt.Errorf("invalid money value %v", raw)
		}
		*m = Money(int64(v) * 100)
	case bsontype.Int64:
		v, ok := raw.Int64OK()
		if !ok {
			return fmt.Errorf("invalid money value %v", raw)
		}
		*m = Money(v * 100)
	case bsontype.Decimal128:
		d, ok := raw.Decimal128OK()
		if !ok {
			return fmt.Errorf("invalid money value %v", raw)
		}
		v, err := strconv.ParseFloat(d.String(), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("invalid money value %s", d.String())
		}
		*m = MoneyFromFloat(v)
	default:
		return fmt.Errorf("cannot decode %s into money", t)
	}
	return nil
}
