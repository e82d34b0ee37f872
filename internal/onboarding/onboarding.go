// Package onboarding drives the first-run setup wizard.
package onboarding

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dvloznov/nett/internal/domain"
)

// MinCategories is how many categories a user needs before onboarding is skipped.
const MinCategories = 3

// Step is a wizard step.
type Step int

const (
	StepCategories Step = iota
	StepBudgets
	StepAccounts
)

var stepLabels = [...]string{
	StepCategories: "Set Up Categories",
	StepBudgets:    "Create Budgets",
	StepAccounts:   "Connect Your First Account",
}

func (s Step) String() string {
	if s < 0 || int(s) >= len(stepLabels) {
		return fmt.Sprintf("Step(%d)", int(s))
	}
	return stepLabels[s]
}

var (
	ErrCategoriesIncomplete = errors.New("set up at least one category before continuing")
	ErrFirstStep            = errors.New("already at the first step")
	ErrFinalStep            = errors.New("the final step cannot be skipped")
	ErrDone                 = errors.New("onboarding already complete")
)

// StatusStore persists whether onboarding finished.
type StatusStore interface {
	Completed() (bool, error)
	MarkComplete() error
	Reset() error
}

// Wizard is the linear onboarding flow.
type Wizard struct {
	status             StatusStore
	step               Step
	categoriesComplete bool
	done               bool
}

// NewWizard starts at the categories step.
func NewWizard(status StatusStore) *Wizard {
	return &Wizard{status: status}
}

// Step returns the active step.
func (w *Wizard) Step() Step { return w.step }

// Done reports whether the final step was completed.
func (w *Wizard) Done() bool { return w.done }

// SetCategoriesComplete records whether the categories step has what it needs.
func (w *Wizard) SetCategoriesComplete(complete bool) {
	w.categoriesComplete = complete
}

// Next advances one step. On the final step it marks onboarding complete.
func (w *Wizard) Next() error {
	if w.done {
		return ErrDone
	}
	if w.step == StepCategories && !w.categoriesComplete {
		return ErrCategoriesIncomplete
	}
	if w.step == StepAccounts {
		if err := w.status.MarkComplete(); err != nil {
			return fmt.Errorf("Next: marking onboarding complete: %w", err)
		}
		w.done = true
		return nil
	}
	w.step++
	return nil
}

// Back returns to the previous step.
func (w *Wizard) Back() error {
	if w.step == StepCategories {
		return ErrFirstStep
	}
	w.step--
	return nil
}

// Skip moves past an optional step without completing it.
func (w *Wizard) Skip() error {
	if w.done {
		return ErrDone
	}
	if w.step == StepAccounts {
		return ErrFinalStep
	}
	w.step++
	return nil
}

// HasSufficientCategories reports whether cats meets MinCategories.
func HasSufficientCategories(cats []domain.Category) bool {
	return len(cats) >= MinCategories
}

// ShouldShow reports whether the wizard should run: never after completion,
// otherwise only while the user has too few categories.
func ShouldShow(cats []domain.Category, status StatusStore) (bool, error) {
	done, err := status.Completed()
	if err != nil {
		return false, fmt.Errorf("ShouldShow: %w", err)
	}
	if done {
		return false, nil
	}
	return !HasSufficientCategories(cats), nil
}

// FileStatus keeps the completion flag in a small file.
type FileStatus struct {
	path string
}

// NewFileStatus stores the flag at path.
func NewFileStatus(path string) *FileStatus {
	return &FileStatus{path: path}
}

// DefaultStatusPath is the flag file under the user's config directory.
func DefaultStatusPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("DefaultStatusPath: %w", err)
	}
	return filepath.Join(dir, "nett", "onboarding_complete"), nil
}

// Completed implements StatusStore.
func (f *FileStatus) Completed() (bool, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("FileStatus.Completed: %w", err)
	}
	return strings.TrimSpace(string(data)) == "true", nil
}

// MarkComplete implements StatusStore.
func (f *FileStatus) MarkComplete() error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("FileStatus.MarkComplete: creating dir: %w", err)
	}
	if err := os.WriteFile(f.path, []byte("true\n"), 0o644); err != nil {
		return fmt.Errorf("FileStatus.MarkComplete: %w", err)
	}
	return nil
}

// Reset implements StatusStore.
func (f *FileStatus) Reset() error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("FileStatus.Reset: %w", err)
	}
	return nil
}
