package model

const (
	// DefaultPageSize is the number of candidates requested per poll
	DefaultPageSize = 25
	// DefaultKeepLast bounds a store's size; oldest entries are evicted first
	DefaultKeepLast = 100
	// DefaultSchedule is how often to poll a catalog source
	DefaultSchedule = "@every 6h"
)
