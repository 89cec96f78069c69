package helper

import (
	"github.com/mitchellh/hashstructure"
	"github.com/xmackex/aurorascaler/logging"
)

// StringInSlice checks whether a string exists in a list of strings.
func StringInSlice(s string, list []string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

// DedupStrings returns the input list with duplicate and empty entries
// removed while preserving the original ordering.
func DedupStrings(list []string) []string {
	seen := make(map[string]struct{}, len(list))
	result := make([]string, 0, len(list))

	for _, item := range list {
		if item == "" {
			continue
		}
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		result = append(result, item)
	}
	return result
}

// Max returns the largest float from a variable length list of floats.
func Max(values ...float64) float64 {
	max := values[0]
	for _, i := range values[1:] {
		if i > max {
			max = i
		}
	}

	return max
}

// Min returns the smallest float from a variable length list of floats.
func Min(values ...float64) float64 {
	min := values[0]
	for _, i := range values[1:] {
		if i < min {
			min = i
		}
	}
	return min
}

// Avg returns the mean of a list of floats and 0 for an empty list.
func Avg(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	var total float64
	for _, v := range values {
		total += v
	}
	return total / float64(len(values))
}

// HasObjectChanged compares two objects by hashing them and reports whether
// they differ. This is used to detect configuration changes across reloads.
func HasObjectChanged(objectA, objectB interface{}) (changed bool, err error) {
	hashA, err := hashstructure.Hash(objectA, nil)
	if err != nil {
		logging.Error("helper/funcs: error hashing object %v: %v", objectA, err)
		return
	}

	hashB, err := hashstructure.Hash(objectB, nil)
	if err != nil {
		logging.Error("helper/funcs: error hashing object %v: %v", objectB, err)
		return
	}

	if hashA != hashB {
		changed = true
	}
	return
}
