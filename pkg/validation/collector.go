package validation

import (
	"fmt"
	"math"
)

// Collector provides a fluent interface for validating numeric inputs.
// It collects all validation errors rather than failing on the first one,
// so a caller sees every bad field of a form at once.
type Collector struct {
	errors ValidationErrors
	prefix string
}

// NewCollector creates a collector whose field names are prefixed with
// prefix (e.g. "params").
func NewCollector(prefix string) *Collector {
	return &Collector{prefix: prefix}
}

func (c *Collector) field(name string) string {
	if c.prefix == "" {
		return name
	}
	return c.prefix + "." + name
}

// Add records an already-built error.
func (c *Collector) Add(err *ValidationError) *Collector {
	if err != nil {
		c.errors = append(c.errors, err)
	}
	return c
}

// Fail records a failure for field.
func (c *Collector) Fail(field string, value any, format string, args ...any) *Collector {
	return c.Add(NewError(c.field(field)).Value(value).Reason(format, args...).Build())
}

// FailWith records a failure caused by a package sentinel error.
func (c *Collector) FailWith(field string, value any, cause error) *Collector {
	return c.Add(NewError(c.field(field)).Value(value).Cause(cause).Build())
}

// PositiveFloat validates that value is finite and > 0.
func (c *Collector) PositiveFloat(field string, value float64) *Collector {
	if math.IsNaN(value) || math.IsInf(value, 0) || value <= 0 {
		c.Fail(field, value, "must be positive")
	}
	return c
}

// NonNegativeFloat validates that value is finite and >= 0.
func (c *Collector) NonNegativeFloat(field string, value float64) *Collector {
	if math.IsNaN(value) || math.IsInf(value, 0) || value < 0 {
		c.Fail(field, value, "must be non-negative")
	}
	return c
}

// RangeFloat validates min <= value <= max.
func (c *Collector) RangeFloat(field string, value, min, max float64) *Collector {
	if math.IsNaN(value) || value < min || value > max {
		c.Fail(field, value, "must be within [%g, %g]", min, max)
	}
	return c
}

// Positive validates that an int is > 0.
func (c *Collector) Positive(field string, value int) *Collector {
	if value <= 0 {
		c.Fail(field, value, "must be positive")
	}
	return c
}

// RangeInt validates min <= value <= max.
func (c *Collector) RangeInt(field string, value, min, max int) *Collector {
	if value < min || value > max {
		c.Fail(field, value, "must be within [%d, %d]", min, max)
	}
	return c
}

// LessThan validates a < b for two related fields.
func (c *Collector) LessThan(field string, a, b float64, other string) *Collector {
	if !(a < b) {
		c.Fail(field, a, "must be below %s (%g)", other, b)
	}
	return c
}

// OneOf validates that a string is one of the allowed values.
func (c *Collector) OneOf(field, value string, allowed []string) *Collector {
	for _, a := range allowed {
		if value == a {
			return c
		}
	}
	return c.Fail(field, value, "must be one of %v", allowed)
}

// Custom applies a custom validation function.
func (c *Collector) Custom(field string, fn func() error) *Collector {
	if err := fn(); err != nil {
		c.FailWith(field, nil, err)
	}
	return c
}

// When conditionally applies validations.
func (c *Collector) When(condition bool, validations func(*Collector)) *Collector {
	if condition {
		validations(c)
	}
	return c
}

// Struct runs the struct-tag validator on v and collects every failure.
func (c *Collector) Struct(v any) *Collector {
	for _, e := range structErrors(v) {
		e.Field = c.field(e.Field)
		c.errors = append(c.errors, e)
	}
	return c
}

// Merge appends the errors of another collector.
func (c *Collector) Merge(other *Collector) *Collector {
	c.errors = append(c.errors, other.errors...)
	return c
}

// HasErrors returns true if any validation errors occurred.
func (c *Collector) HasErrors() bool {
	return len(c.errors) > 0
}

// Errors returns all collected errors.
func (c *Collector) Errors() ValidationErrors {
	return c.errors
}

// Err returns nil or a ValidationErrors value.
func (c *Collector) Err() error {
	if len(c.errors) == 0 {
		return nil
	}
	return c.errors
}

// String is used in debug logs.
func (c *Collector) String() string {
	return fmt.Sprintf("%s: %d errors", c.prefix, len(c.errors))
}
