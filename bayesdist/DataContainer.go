package bayesdist

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// DataContainer contains batches of observed category counts.
// All batches share the same number of categories.
type DataContainer struct {
	Counts        [][]int
	NumCategories int
	Size          int
}

// NewDataContainerFromCounts returns DataContainer instance holding a copy of counts.
func NewDataContainerFromCounts(counts [][]int) (*DataContainer, error) {
	dataContainer := new(DataContainer)
	for i, batch := range counts {
		if err := dataContainer.add(append([]int(nil), batch...)); err != nil {
			return nil, fmt.Errorf("batch %d: %w", i, err)
		}
	}
	return dataContainer, nil
}

// NewDataContainer returns DataContainer instance.
// input file has one batch per line: whitespace separated non-negative counts,
// one per category. Blank lines and lines starting with '#' are skipped.
func NewDataContainer(filePath string) (*DataContainer, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("cannot open filePath (%v): %w", filePath, err)
	}
	defer f.Close()
	return readDataContainer(f, filePath, func(fields []string) ([]int, error) {
		counts := make([]int, len(fields))
		for i, field := range fields {
			c, err := strconv.Atoi(field)
			if err != nil {
				return nil, fmt.Errorf("%w: count %q is not an integer", ErrInvalidArgument, field)
			}
			counts[i] = c
		}
		return counts, nil
	})
}

// NewDataContainerFromLabels returns DataContainer instance.
// input file has one batch per line: whitespace separated category indices in
// [0, numCategories), tallied into a count vector.
func NewDataContainerFromLabels(filePath string, numCategories int) (*DataContainer, error) {
	if numCategories < 1 {
		return nil, fmt.Errorf("%w: number of categories must be at least 1, got %d", ErrInvalidArgument, numCategories)
	}
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("cannot open filePath (%v): %w", filePath, err)
	}
	defer f.Close()
	dataContainer, err := readDataContainer(f, filePath, func(fields []string) ([]int, error) {
		counts := make([]int, numCategories)
		for _, field := range fields {
			label, err := strconv.Atoi(field)
			if err != nil || label < 0 || label >= numCategories {
				return nil, fmt.Errorf("%w: label %q is not in [0, %d)", ErrInvalidArgument, field, numCategories)
			}
			counts[label]++
		}
		return counts, nil
	})
	if err != nil {
		return nil, err
	}
	dataContainer.NumCategories = numCategories
	return dataContainer, nil
}

func readDataContainer(r io.Reader, name string, parse func([]string) ([]int, error)) (*DataContainer, error) {
	dataContainer := new(DataContainer)
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		counts, err := parse(strings.Fields(text))
		if err != nil {
			return nil, fmt.Errorf("%v:%d: %w", name, line, err)
		}
		if err := dataContainer.add(counts); err != nil {
			return nil, fmt.Errorf("%v:%d: %w", name, line, err)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read error in filePath (%v): line %v: %w", name, line, err)
	}
	return dataContainer, nil
}

func (dataContainer *DataContainer) add(counts []int) error {
	if len(counts) == 0 {
		return fmt.Errorf("%w: empty count vector", ErrInvalidArgument)
	}
	if dataContainer.Size == 0 {
		dataContainer.NumCategories = len(counts)
	} else if len(counts) != dataContainer.NumCategories {
		return fmt.Errorf("%w: count vector has %d categories, want %d", ErrInvalidArgument, len(counts), dataContainer.NumCategories)
	}
	for _, c := range counts {
		if c < 0 {
			return fmt.Errorf("%w: count %d is negative", ErrInvalidArgument, c)
		}
	}
	dataContainer.Counts = append(dataContainer.Counts, counts)
	dataContainer.Size++
	return nil
}

// GetCounts returns i-th count vector.
func (dataContainer *DataContainer) GetCounts(i int) []int {
	if i < 0 || i >= dataContainer.Size {
		errMsg := fmt.Sprintf("GetCounts error. index i (%v) is out of range [0, %v)", i, dataContainer.Size)
		panic(errMsg)
	}
	return dataContainer.Counts[i]
}

// Total returns the summed counts of every category over all batches.
func (dataContainer *DataContainer) Total() []int {
	total := make([]int, dataContainer.NumCategories)
	for _, counts := range dataContainer.Counts {
		for i, c := range counts {
			total[i] += c
		}
	}
	return total
}
