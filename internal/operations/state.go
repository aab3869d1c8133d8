package operations

import (
	"sync"
	"time"

	"github.com/Anest2009/Enerlytics/pkg/contracts/domain"
)

// OperationStatusValue represents the overall run status
type OperationStatusValue string

const (
	OperationStatusPending   OperationStatusValue = "pending"
	OperationStatusRunning   OperationStatusValue = "running"
	OperationStatusCompleted OperationStatusValue = "completed"
	OperationStatusFailed    OperationStatusValue = "failed"
	OperationStatusCancelled OperationStatusValue = "cancelled"
)

// OperationState is the complete state of one analysis run. Steps hand
// their outputs to later steps through the typed fields.
type OperationState struct {
	mu sync.RWMutex

	ID        string
	Status    OperationStatusValue
	StartTime time.Time
	EndTime   *time.Time
	Request   AnalysisRequest

	// Step states, in execution order
	steps []*StepState
	index map[string]*StepState

	Forecast       domain.Dataset
	Actual         domain.Dataset
	ForecastReport *domain.ParseReport
	ActualReport   *domain.ParseReport
	Match          *domain.MatchResult
	Result         *domain.AnalysisResult
	ExportPath     string

	Error error
}

// NewOperationState creates a new run state for the given request
func NewOperationState(id string, req AnalysisRequest) *OperationState {
	return &OperationState{
		ID:        id,
		Status:    OperationStatusPending,
		StartTime: time.Now(),
		Request:   req,
		index:     make(map[string]*StepState),
	}
}

// Start marks the run as running
func (p *OperationState) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Status = OperationStatusRunning
	p.StartTime = time.Now()
}

// Complete marks the run as completed
func (p *OperationState) Complete() {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	p.EndTime = &now
	p.Status = OperationStatusCompleted
}

// Fail marks the run as failed
func (p *OperationState) Fail(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	p.EndTime = &now
	p.Status = OperationStatusFailed
	p.Error = err
}

// Cancel marks the run as cancelled
func (p *OperationState) Cancel(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	p.EndTime = &now
	p.Status = OperationStatusCancelled
	p.Error = err
}

// GetStatus returns the current run status
func (p *OperationState) GetStatus() OperationStatusValue {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.Status
}

// GetStage returns the state of a specific Step
func (p *OperationState) GetStage(stepID string) *StepState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.index[stepID]
}

// SetStage adds or replaces the state of a specific Step
func (p *OperationState) SetStage(stepID string, state *StepState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.index[stepID]; !ok {
		p.steps = append(p.steps, state)
	} else {
		for i, s := range p.steps {
			if s.ID == stepID {
				p.steps[i] = state
			}
		}
	}
	p.index[stepID] = state
}

// Steps returns snapshots of the step states in execution order
func (p *OperationState) Steps() []StepSnapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]StepSnapshot, 0, len(p.steps))
	for _, s := range p.steps {
		out = append(out, s.Snapshot())
	}
	return out
}

// Duration returns the run duration so far
func (p *OperationState) Duration() time.Duration {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.EndTime != nil {
		return p.EndTime.Sub(p.StartTime)
	}
	return time.Since(p.StartTime)
}

// SetResult stores the analysis result
func (p *OperationState) SetResult(result *domain.AnalysisResult) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Result = result
}

// GetResult returns the analysis result, nil until the analyze step ran
func (p *OperationState) GetResult() *domain.AnalysisResult {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.Result
}

// SetExportPath records where the export was written
func (p *OperationState) SetExportPath(path string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ExportPath = path
}

// GetExportPath returns the export destination, empty when none was written
func (p *OperationState) GetExportPath() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.ExportPath
}

// ToResponse converts the state to a response
func (p *OperationState) ToResponse() *OperationResponse {
	steps := p.Steps()

	p.mu.RLock()
	defer p.mu.RUnlock()

	resp := &OperationResponse{
		ID:     p.ID,
		Status: p.Status,
		Steps:  steps,
	}
	if p.EndTime != nil {
		resp.Duration = p.EndTime.Sub(p.StartTime)
	} else {
		resp.Duration = time.Since(p.StartTime)
	}
	if p.Error != nil {
		resp.Error = p.Error.Error()
	}
	return resp
}
