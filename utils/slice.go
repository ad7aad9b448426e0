package utils

// SliceContains - utility-function to check wether an element is part of an array
func SliceContains[V comparable](search V, data []V) bool {
	for _, value := range data {
		if value == search {
			return true
		}
	}
	return false
}
