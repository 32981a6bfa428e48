package main

import "fmt"

// Category is one of the kinds of request the generator can issue.
type Category int

const (
	CategoryUser Category = iota
	CategoryResource
	CategoryBatch
	CategoryHealth
	CategorySlow
	CategoryError
	numCategories
)

func (c Category) String() string {
	switch c {
	case CategoryUser:
		return "user"
	case CategoryResource:
		return "resource"
	case CategoryBatch:
		return "batch"
	case CategoryHealth:
		return "health"
	case CategorySlow:
		return "slow"
	case CategoryError:
		return "error"
	default:
		return "unknown"
	}
}

// MixWeights is the percentage share of each request category. The defaults
// are arbitrary example-traffic weights; they just have to sum to 100.
type MixWeights struct {
	User     int `long:"user" description:"percent of requests that fetch a user by random id" default:"40" yaml:"user"`
	Resource int `long:"resource" description:"percent of requests that fetch a random resource" default:"30" yaml:"resource"`
	Batch    int `long:"batch" description:"percent of requests that submit a batch for processing" default:"15" yaml:"batch"`
	Health   int `long:"health" description:"percent of requests that hit the health endpoint" default:"10" yaml:"health"`
	Slow     int `long:"slow" description:"percent of requests that hit the slow endpoint" default:"3" yaml:"slow"`
	Error    int `long:"error" description:"percent of requests that hit the error endpoint" default:"2" yaml:"error"`
}

// Mix selects a request category from a uniform roll in [0,100) by walking
// cumulative thresholds.
type Mix struct {
	thresholds [numCategories]int
}

func NewMix(w MixWeights) (*Mix, error) {
	weights := [numCategories]int{w.User, w.Resource, w.Batch, w.Health, w.Slow, w.Error}
	m := &Mix{}
	sum := 0
	for i, wt := range weights {
		if wt < 0 {
			return nil, fmt.Errorf("mix weight for %s is negative (%d)", Category(i), wt)
		}
		sum += wt
		m.thresholds[i] = sum
	}
	if sum != 100 {
		return nil, fmt.Errorf("mix weights must sum to 100, got %d", sum)
	}
	return m, nil
}

// Pick maps a roll in [0,100) to a category. Rolls outside the range are
// clamped to the last category rather than panicking.
func (m *Mix) Pick(roll int) Category {
	for i, t := range m.thresholds {
		if roll < t {
			return Category(i)
		}
	}
	return numCategories - 1
}
