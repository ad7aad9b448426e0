package server

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistryVisitsEveryConcurrentlyAddedHandle(t *testing.T) {
	for _, n := range []int{0, 1, 7, 250} {
		registry := NewConnectionRegistry[int]()

		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(handle int) {
				defer wg.Done()
				registry.Add(handle)
			}(i)
		}
		wg.Wait()

		visited := make(map[int]int)
		pruned := registry.ForEach(func(handle int) error {
			visited[handle]++
			return nil
		})

		assert.Equal(t, 0, pruned)
		assert.Equal(t, n, len(visited))
		for handle, count := range visited {
			assert.Equalf(t, 1, count, "handle %d visited %d times", handle, count)
		}
		assert.Equal(t, n, registry.Count())
	}
}

func TestRegistryVisitsInInsertionOrder(t *testing.T) {
	registry := NewConnectionRegistry[string]()
	registry.Add("a")
	registry.Add("b")
	registry.Add("c")

	var visited []string
	registry.ForEach(func(handle string) error {
		visited = append(visited, handle)
		return nil
	})

	assert.Equal(t, []string{"a", "b", "c"}, visited)
}

func TestRegistryRemoveIsIdempotent(t *testing.T) {
	registry := NewConnectionRegistry[int]()
	registry.Add(1)

	assert.True(t, registry.Remove(1))
	assert.False(t, registry.Remove(1))
	assert.False(t, registry.Remove(42))
	assert.Equal(t, 0, registry.Count())
}

func TestRegistryAddTwiceKeepsSingleEntry(t *testing.T) {
	registry := NewConnectionRegistry[int]()
	registry.Add(1)
	registry.Add(1)

	visits := 0
	registry.ForEach(func(handle int) error {
		visits++
		return nil
	})
	assert.Equal(t, 1, visits)
}

func TestRegistryPrunesDeadHandles(t *testing.T) {
	registry := NewConnectionRegistry[int]()
	for i := 0; i < 5; i++ {
		registry.Add(i)
	}

	var visited []int
	pruned := registry.ForEach(func(handle int) error {
		visited = append(visited, handle)
		if handle%2 == 1 {
			return errors.New("write failed")
		}
		return nil
	})

	assert.Equal(t, 2, pruned)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, visited)

	visited = nil
	registry.ForEach(func(handle int) error {
		visited = append(visited, handle)
		return nil
	})
	assert.Equal(t, []int{0, 2, 4}, visited)
}

func TestRegistryRemoveDuringForEach(t *testing.T) {
	registry := NewConnectionRegistry[int]()
	for i := 0; i < 10; i++ {
		registry.Add(i)
	}

	visited := make(map[int]int)
	registry.ForEach(func(handle int) error {
		visited[handle]++
		if handle == 2 {
			// removes a handle that has not had its turn yet and the current one
			registry.Remove(7)
			registry.Remove(2)
		}
		return nil
	})

	for i := 0; i < 10; i++ {
		if i == 7 {
			assert.Equal(t, 0, visited[i])
			continue
		}
		assert.Equalf(t, 1, visited[i], "handle %d", i)
	}
	assert.Equal(t, 8, registry.Count())
}

func TestRegistryConcurrentAddRemoveForEach(t *testing.T) {
	registry := NewConnectionRegistry[int]()
	for i := 0; i < 100; i++ {
		registry.Add(i)
	}

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(2)
		go func(handle int) {
			defer wg.Done()
			registry.Remove(handle)
		}(i)
		go func(handle int) {
			defer wg.Done()
			registry.Add(handle + 1000)
		}(i)
	}
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seen := make(map[int]bool)
			registry.ForEach(func(handle int) error {
				assert.False(t, seen[handle], "handle visited twice")
				seen[handle] = true
				return nil
			})
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, registry.Count())
	registry.ForEach(func(handle int) error {
		assert.GreaterOrEqual(t, handle, 1000)
		return nil
	})
}
