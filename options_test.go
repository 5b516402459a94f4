package envmap

import (
	"errors"
	"log/slog"
	"testing"
	"time"
)

func TestDefaultOptions(t *testing.T) {
	o := defaultOptions()
	if o.rate != DefaultUpdatesPerSecond {
		t.Errorf("rate = %d, want %d", o.rate, DefaultUpdatesPerSecond)
	}
	if o.exposure {
		t.Error("exposure correction should be off by default")
	}
	if o.backendKind != BackendAuto {
		t.Errorf("backendKind = %v, want auto", o.backendKind)
	}
	if o.clock == nil {
		t.Error("clock should default to time.Now")
	}
	if err := o.validate(); err != nil {
		t.Errorf("default options invalid: %v", err)
	}
}

func TestOptionsApply(t *testing.T) {
	mb := &mockBackend{name: "mock"}
	l := slog.New(nopHandler{})
	fixed := time.Unix(100, 0)

	o := defaultOptions()
	for _, opt := range []Option{
		WithUpdatesPerSecond(3),
		WithExposureCorrection(true),
		WithBackend(BackendSoftware),
		WithComputeBackend(mb),
		WithWorkers(2),
		WithMaxFrameWidth(640),
		WithClock(func() time.Time { return fixed }),
		WithLogger(l),
	} {
		opt(&o)
	}

	if o.rate != 3 || !o.exposure || o.backendKind != BackendSoftware {
		t.Errorf("rate/exposure/backend = %d/%v/%v", o.rate, o.exposure, o.backendKind)
	}
	if o.compute != mb {
		t.Error("compute backend not set")
	}
	if o.workers != 2 || o.maxFrameWidth != 640 {
		t.Errorf("workers/maxFrameWidth = %d/%d", o.workers, o.maxFrameWidth)
	}
	if !o.clock().Equal(fixed) {
		t.Error("clock not set")
	}
	if o.logger != l {
		t.Error("logger not set")
	}
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name string
		opt  Option
	}{
		{"zero rate", WithUpdatesPerSecond(0)},
		{"negative rate", WithUpdatesPerSecond(-5)},
		{"unknown backend", WithBackend(BackendKind(42))},
		{"negative frame width", WithMaxFrameWidth(-1)},
		{"nil clock", WithClock(nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := defaultOptions()
			tt.opt(&o)
			err := o.validate()
			if !errors.Is(err, ErrInvalidOption) {
				t.Fatalf("validate() = %v, want ErrInvalidOption", err)
			}
			if !errors.Is(err, ErrInitialization) {
				t.Errorf("validate() = %v, want an ErrInitialization", err)
			}
		})
	}
}

func TestNewRejectsInvalidOption(t *testing.T) {
	m, err := New(16, colorFill, WithUpdatesPerSecond(0))
	if !errors.Is(err, ErrInvalidOption) {
		t.Fatalf("New() error = %v, want ErrInvalidOption", err)
	}
	if m != nil {
		t.Error("New() returned a mapper on error")
	}
}

func TestBackendKindString(t *testing.T) {
	tests := []struct {
		kind BackendKind
		want string
	}{
		{BackendAuto, "auto"},
		{BackendGPU, "gpu"},
		{BackendSoftware, "software"},
		{BackendKind(7), "BackendKind(7)"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", int(tt.kind), got, tt.want)
		}
	}
}
