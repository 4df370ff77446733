package web

import (
	"testing"

	"trajgrid/trajectory"
	"trajgrid/util"
)

func TestLruResultCache_insertAndEviction(t *testing.T) {
	// Arrange
	cache := newLruResultCache(3)
	resultA := trajectory.NewIDSet(1)
	resultB := trajectory.NewIDSet(2)
	resultC := trajectory.NewIDSet(3)
	resultD := trajectory.NewIDSet(4)

	// Act & Assert
	cache.insert("A", resultA)
	cache.insert("B", resultB)
	cache.insert("C", resultC)
	util.AssertEqual(t, 3, cache.len())

	// Read A, so that B is the least recently used entry
	result, ok := cache.get("A")
	util.AssertTrue(t, ok)
	util.AssertEqual(t, resultA, result)

	cache.insert("D", resultD)
	util.AssertEqual(t, 3, cache.len())

	_, ok = cache.get("B")
	util.AssertFalse(t, ok)
	for queryString, expected := range map[string]trajectory.IDSet{"A": resultA, "C": resultC, "D": resultD} {
		result, ok = cache.get(queryString)
		util.AssertTrue(t, ok)
		util.AssertEqual(t, expected, result)
	}
}

func TestLruResultCache_replaceExistingEntry(t *testing.T) {
	// Arrange
	cache := newLruResultCache(2)
	cache.insert("A", trajectory.NewIDSet(1))
	cache.insert("B", trajectory.NewIDSet(2))

	// Act
	cache.insert("A", trajectory.NewIDSet(5))

	// Assert
	util.AssertEqual(t, 2, cache.len())
	result, ok := cache.get("A")
	util.AssertTrue(t, ok)
	util.AssertEqual(t, trajectory.NewIDSet(5), result)
	_, ok = cache.get("B")
	util.AssertTrue(t, ok)
}

func TestLruResultCache_clear(t *testing.T) {
	// Arrange
	cache := newLruResultCache(2)
	cache.insert("A", trajectory.NewIDSet(1))

	// Act
	cache.clear()

	// Assert
	util.AssertEqual(t, 0, cache.len())
	_, ok := cache.get("A")
	util.AssertFalse(t, ok)
}

func TestLruResultCache_disabled(t *testing.T) {
	// Arrange
	cache := newLruResultCache(0)

	// Act
	cache.insert("A", trajectory.NewIDSet(1))

	// Assert
	util.AssertEqual(t, 0, cache.len())
}
