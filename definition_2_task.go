package scheduler

import (
	goerrors "github.com/TudorHulban/go-errors"
)

type Priority uint8

const (
	PriorityHigh Priority = iota + 1
	PriorityMedium
	PriorityLow
)

const (
	_HighPriorityBelowLength   = 100_000
	_MediumPriorityBelowLength = 200_000

	// Nominal worker speed used for execution estimates, in instructions per
	// time unit. An estimate input, not the assigned worker's own capacity.
	_DefaultReferenceRate = 1000

	_DeadlineBuffer = 1.2

	_Unassigned = -1
)

// Task is immutable after construction except for the owning worker.
type Task struct {
	ID     int
	Length float64

	Priority               Priority
	EstimatedExecutionTime float64
	Deadline               float64

	AssignedWorkerID int
}

type ParamsNewTask struct {
	ID     int
	Length float64

	// ReferenceRate overrides the nominal worker speed. Zero selects the default.
	ReferenceRate float64
}

func (params *ParamsNewTask) IsValid() error {
	if params.ID < 0 {
		return goerrors.ErrValidation{
			Caller: "IsValid - ParamsNewTask",
			Issue: goerrors.ErrNegativeInput{
				InputName: "ID",
			},
		}
	}

	if params.Length <= 0 {
		return goerrors.ErrValidation{
			Caller: "IsValid - ParamsNewTask",
			Issue: goerrors.ErrInvalidInput{
				InputName: "Length",
			},
		}
	}

	if params.ReferenceRate < 0 {
		return goerrors.ErrValidation{
			Caller: "IsValid - ParamsNewTask",
			Issue: goerrors.ErrNegativeInput{
				InputName: "ReferenceRate",
			},
		}
	}

	return nil
}

func NewTask(params *ParamsNewTask) (*Task, error) {
	if errValidation := params.IsValid(); errValidation != nil {
		return nil,
			errValidation
	}

	referenceRate := ternary(
		params.ReferenceRate > 0,
		params.ReferenceRate,
		float64(_DefaultReferenceRate),
	)

	estimatedExecutionTime := params.Length / referenceRate

	return &Task{
			ID:     params.ID,
			Length: params.Length,

			Priority:               priorityForLength(params.Length),
			EstimatedExecutionTime: estimatedExecutionTime,
			Deadline:               estimatedExecutionTime * _DeadlineBuffer,

			AssignedWorkerID: _Unassigned,
		},
		nil
}

// Shorter tasks get higher priority for fairness.
func priorityForLength(length float64) Priority {
	switch {
	case length < _HighPriorityBelowLength:
		return PriorityHigh

	case length < _MediumPriorityBelowLength:
		return PriorityMedium

	default:
		return PriorityLow
	}
}
