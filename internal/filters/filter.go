package filters

import (
	"cmp"
	"errors"
	"fmt"
	"math"

	"cloud.google.com/go/civil"

	"neowatch/internal/models"
)

// ErrUnsupportedCriterion marks a filter that has no extraction rule.
var ErrUnsupportedCriterion = errors.New("unsupported criterion")

// Op is the comparison applied between an extracted value and the reference.
type Op int

const (
	OpEq Op = iota
	OpLe
	OpGe
)

func (o Op) String() string {
	switch o {
	case OpEq:
		return "=="
	case OpLe:
		return "<="
	case OpGe:
		return ">="
	default:
		return fmt.Sprintf("Op(%d)", int(o))
	}
}

func (o Op) holds(c int) bool {
	switch o {
	case OpEq:
		return c == 0
	case OpLe:
		return c <= 0
	case OpGe:
		return c >= 0
	default:
		return false
	}
}

// Attribute names the approach property a filter inspects.
type Attribute string

const (
	AttrDate      Attribute = "date"
	AttrDistance  Attribute = "distance"
	AttrVelocity  Attribute = "velocity"
	AttrDiameter  Attribute = "diameter"
	AttrHazardous Attribute = "hazardous"
)

// Filter is a predicate over a close approach.
type Filter interface {
	Match(ca *models.CloseApproach) bool
	Attribute() Attribute
	Validate() error
	String() string
}

// Extractor pulls a comparable value out of an approach. ok is false when
// the approach has no usable value, in which case the filter does not match.
type Extractor[T any] func(ca *models.CloseApproach) (value T, ok bool)

// AttributeFilter compares one extracted value against a fixed reference.
type AttributeFilter[T any] struct {
	attr    Attribute
	op      Op
	value   T
	extract Extractor[T]
	compare func(a, b T) int
}

// NewAttributeFilter builds a filter from an extraction rule. New filter kinds
// only need a new extractor; matching and combination stay the same.
func NewAttributeFilter[T any](attr Attribute, op Op, value T, extract Extractor[T], compare func(a, b T) int) *AttributeFilter[T] {
	return &AttributeFilter[T]{
		attr:    attr,
		op:      op,
		value:   value,
		extract: extract,
		compare: compare,
	}
}

func (f *AttributeFilter[T]) Attribute() Attribute { return f.attr }

// Value returns the reference value.
func (f *AttributeFilter[T]) Value() T { return f.value }

// Op returns the comparison operator.
func (f *AttributeFilter[T]) Op() Op { return f.op }

// Validate reports ErrUnsupportedCriterion when no extraction rule is defined.
func (f *AttributeFilter[T]) Validate() error {
	if f.extract == nil || f.compare == nil {
		return fmt.Errorf("%w: %s", ErrUnsupportedCriterion, f.attr)
	}
	return nil
}

// Match evaluates extract(ca) OP value.
func (f *AttributeFilter[T]) Match(ca *models.CloseApproach) bool {
	if f.extract == nil || f.compare == nil {
		return false
	}
	v, ok := f.extract(ca)
	if !ok {
		return false
	}
	return f.op.holds(f.compare(v, f.value))
}

func (f *AttributeFilter[T]) String() string {
	return fmt.Sprintf("%s %s %v", f.attr, f.op, f.value)
}

// Distance filters on the nominal approach distance in au.
func Distance(op Op, au float64) Filter {
	return floatFilter(AttrDistance, op, au, distanceOf)
}

// Velocity filters on the relative approach velocity in km/s.
func Velocity(op Op, kms float64) Filter {
	return floatFilter(AttrVelocity, op, kms, velocityOf)
}

// Diameter filters on the linked NEO's diameter in km. Unlinked approaches
// and unknown diameters never match.
func Diameter(op Op, km float64) Filter {
	return floatFilter(AttrDiameter, op, km, diameterOf)
}

// Hazardous filters on the linked NEO's hazard flag. Unlinked approaches never
// match.
func Hazardous(op Op, hazardous bool) Filter {
	return NewAttributeFilter(AttrHazardous, op, hazardous, hazardousOf, compareBool)
}

// Date filters on the calendar date of the approach time.
func Date(op Op, d civil.Date) Filter {
	return NewAttributeFilter(AttrDate, op, d, dateOf, civil.Date.Compare)
}

func distanceOf(ca *models.CloseApproach) (float64, bool) {
	return ca.Distance, !math.IsNaN(ca.Distance)
}

func velocityOf(ca *models.CloseApproach) (float64, bool) {
	return ca.Velocity, !math.IsNaN(ca.Velocity)
}

func diameterOf(ca *models.CloseApproach) (float64, bool) {
	neo := ca.NEO()
	if neo == nil || !neo.HasDiameter() {
		return 0, false
	}
	return neo.Diameter, true
}

func hazardousOf(ca *models.CloseApproach) (bool, bool) {
	neo := ca.NEO()
	if neo == nil {
		return false, false
	}
	return neo.Hazardous, true
}

func dateOf(ca *models.CloseApproach) (civil.Date, bool) {
	if ca.Time.IsZero() {
		return civil.Date{}, false
	}
	return ca.Date(), true
}

// floatFilter builds a numeric filter. NaN compares unequal to everything, so
// a NaN reference matches nothing.
func floatFilter(attr Attribute, op Op, ref float64, get Extractor[float64]) Filter {
	if math.IsNaN(ref) {
		get = never[float64]
	}
	return NewAttributeFilter(attr, op, ref, get, cmp.Compare[float64])
}

func never[T any](*models.CloseApproach) (T, bool) {
	var zero T
	return zero, false
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}
