package measure

import "fmt"

// CategoryDimensionless tags pure scale terms such as prefix factors or
// percent. These terms never contribute to a unit type.
const CategoryDimensionless = "[dimensionless]"

// BaseUnit is an indivisible named unit. Scale converts one of this unit
// into the canonical base unit of its category, so a kilometer is
// {Name: "km", Category: "[length]", Scale: 1000}.
type BaseUnit struct {
	Name     string
	Category string
	Scale    float64
}

func (b BaseUnit) String() string {
	return b.Name
}

func (b BaseUnit) GoString() string {
	return fmt.Sprintf("BaseUnit{%s %s %g}", b.Name, b.Category, b.Scale)
}

func (b BaseUnit) isScaleOnly() bool {
	return b.Category == CategoryDimensionless
}
