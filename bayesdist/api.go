package bayesdist

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/cheggaaa/pb/v3"
)

// UpdateFromBatchesAPI applies every batch of dataContainer to model in order.
// Batches the model rejects are logged and skipped; the number of applied
// batches is returned. logger may be nil. The progress bar is written to
// stderr when showProgress is set.
func UpdateFromBatchesAPI(model *Conjugate, dataContainer *DataContainer, logger *slog.Logger, showProgress bool) int {
	var bar *pb.ProgressBar
	if showProgress {
		bar = pb.StartNew(dataContainer.Size)
	}
	applied := 0
	for i := 0; i < dataContainer.Size; i++ {
		if bar != nil {
			bar.Increment()
		}
		if err := model.UpdateFromObservations(dataContainer.Counts[i]); err != nil {
			if logger != nil {
				logger.Warn("skipping batch", "batch", i, "error", err)
			}
			continue
		}
		applied++
	}
	if bar != nil {
		bar.Finish()
	}
	return applied
}

// ScoreBatchesAPI returns the marginal log likelihood of every batch under the
// current posterior, computed by up to threadsNum goroutines. model must not
// be modified while it runs.
func ScoreBatchesAPI(model *Conjugate, dataContainer *DataContainer, threadsNum int) ([]float64, error) {
	if threadsNum < 1 {
		return nil, fmt.Errorf("%w: threadsNum must be at least 1, got %d", ErrInvalidArgument, threadsNum)
	}
	scores := make([]float64, dataContainer.Size)
	errs := make([]error, dataContainer.Size)
	ch := make(chan int, threadsNum)
	wg := sync.WaitGroup{}
	for i, counts := range dataContainer.Counts {
		ch <- 1
		wg.Add(1)
		go func(i int, counts []int) {
			scores[i], errs[i] = model.LogLikelihoodFromObservations(counts)
			<-ch
			wg.Done()
		}(i, counts)
	}
	wg.Wait()
	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("batch %d: %w", i, err)
		}
	}
	return scores, nil
}

// SyncConjugate serializes access to a Conjugate shared by several callers.
// Updates, initialisers and sampling hold the write lock; pure queries the
// read lock.
type SyncConjugate struct {
	mu    sync.RWMutex
	model *Conjugate
}

// NewSyncConjugate returns SyncConjugate instance owning model.
func NewSyncConjugate(model *Conjugate) *SyncConjugate {
	return &SyncConjugate{model: model}
}

// UpdateFromObservations is Conjugate.UpdateFromObservations under the write lock.
func (s *SyncConjugate) UpdateFromObservations(counts []int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model.UpdateFromObservations(counts)
}

// SetJeffreysPrior is Conjugate.SetJeffreysPrior under the write lock.
func (s *SyncConjugate) SetJeffreysPrior() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model.SetJeffreysPrior()
}

// SetAllParameterAlphasTo is Conjugate.SetAllParameterAlphasTo under the write lock.
func (s *SyncConjugate) SetAllParameterAlphasTo(newAlpha float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model.SetAllParameterAlphasTo(newAlpha)
}

// SetJeffreysFromObservationDistribution is Conjugate.SetJeffreysFromObservationDistribution under the write lock.
func (s *SyncConjugate) SetJeffreysFromObservationDistribution(obsDist *Categorical) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model.SetJeffreysFromObservationDistribution(obsDist)
}

// SamplePosterior advances the generator, so it takes the write lock.
func (s *SyncConjugate) SamplePosterior() []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model.SamplePosterior()
}

// LogLikelihoodFromObservations is Conjugate.LogLikelihoodFromObservations under the read lock.
func (s *SyncConjugate) LogLikelihoodFromObservations(counts []int) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.model.LogLikelihoodFromObservations(counts)
}

// ObservationProbs returns the current observation probabilities.
func (s *SyncConjugate) ObservationProbs() []float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.model.ObservationDistribution().Probs()
}

// Alphas returns the current posterior alphas.
func (s *SyncConjugate) Alphas() []float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.model.Alphas()
}

// Snapshot returns a deep copy taken under the read lock.
func (s *SyncConjugate) Snapshot() *Conjugate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.model.Clone()
}
