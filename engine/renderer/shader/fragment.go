package shader

import (
	"errors"
	"fmt"
	"strings"
)

// ErrStaleRequest is returned by Commit when a newer request was issued for the same slot.
// It marks a superseded load, not a failure.
var ErrStaleRequest = errors.New("shader: request superseded by a newer one")

// ErrIncompleteSet is returned when assembling a component set that lacks a hash or a noise fragment.
var ErrIncompleteSet = errors.New("shader: component set needs both a hash and a noise fragment")

// Slot names one of the two interchangeable fragment positions.
type Slot int

const (
	// SlotHash holds the integer hash function.
	SlotHash Slot = iota

	// SlotNoise holds the noise function built on the hash.
	SlotNoise
)

func (s Slot) String() string {
	switch s {
	case SlotHash:
		return "hash"
	case SlotNoise:
		return "noise"
	default:
		return fmt.Sprintf("slot(%d)", int(s))
	}
}

// ParseSlot parses "hash" or "noise".
func ParseSlot(s string) (Slot, error) {
	switch strings.ToLower(s) {
	case "hash":
		return SlotHash, nil
	case "noise":
		return SlotNoise, nil
	default:
		return 0, fmt.Errorf("shader: unknown slot %q", s)
	}
}

// HashArity describes the signature of the hash function a hash fragment defines. It selects
// the glue code that adapts the hash to the lattice lookups of the noise fragments and is
// uploaded to the GPU as the hash variant discriminant.
type HashArity int32

const (
	// HashArityOneToOne is fn hash11(u32) -> u32.
	HashArityOneToOne HashArity = iota

	// HashArityTwoToOne is fn hash21(vec2<u32>) -> u32.
	HashArityTwoToOne

	// HashArityOneToThree is fn hash13(u32) -> vec3<u32>.
	HashArityOneToThree
)

func (a HashArity) String() string {
	switch a {
	case HashArityOneToOne:
		return "11"
	case HashArityTwoToOne:
		return "21"
	case HashArityOneToThree:
		return "13"
	default:
		return fmt.Sprintf("arity(%d)", int32(a))
	}
}

// Function returns the name of the WGSL function a hash of this arity must define.
func (a HashArity) Function() string {
	return "hash" + a.String()
}

func arityFromArg(arg AnnotationArg) HashArity {
	switch arg {
	case AnnotationArgArity21:
		return HashArityTwoToOne
	case AnnotationArgArity13:
		return HashArityOneToThree
	default:
		return HashArityOneToOne
	}
}

// Fragment is an immutable piece of WGSL source occupying a slot.
type Fragment struct {
	Slot   Slot
	Name   string
	Source string

	// Arity is only meaningful for hash fragments.
	Arity HashArity
}

// Empty reports whether the fragment has no source.
func (f Fragment) Empty() bool {
	return f.Source == ""
}

// ComponentSet is a consistent snapshot of both slots.
type ComponentSet struct {
	Hash  Fragment
	Noise Fragment

	// Arity is the hash fragment's arity.
	Arity HashArity

	// Generation counts successful commits to the store; equal generations mean equal sets.
	Generation uint64
}

// Complete reports whether both slots hold source.
func (c ComponentSet) Complete() bool {
	return !c.Hash.Empty() && !c.Noise.Empty()
}

// Request identifies one issued load for a slot. IDs increase monotonically per slot.
type Request struct {
	Slot Slot
	Name string
	ID   uint64
}

// newFragment validates source for slot and resolves the hash arity.
//
// Hash arity comes from an @oxy:arity annotation when present, then from a _11, _21 or _13
// name suffix, and otherwise defaults to one-to-one.
func newFragment(slot Slot, name, source string) (Fragment, error) {
	f := Fragment{Slot: slot, Name: name, Source: source}

	var annotated *AnnotationArg
	for i, line := range strings.Split(source, "\n") {
		a, err := parseAnnotation(line, i+1)
		if err != nil {
			return Fragment{}, err
		}
		if a != nil && a.Type == AnnotationTypeArity {
			annotated = &a.Args[0]
		}
	}
	if slot != SlotHash {
		return f, nil
	}

	switch {
	case annotated != nil:
		f.Arity = arityFromArg(*annotated)
	case strings.HasSuffix(name, "_21"):
		f.Arity = HashArityTwoToOne
	case strings.HasSuffix(name, "_13"):
		f.Arity = HashArityOneToThree
	default:
		f.Arity = HashArityOneToOne
	}
	return f, nil
}
