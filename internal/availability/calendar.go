package availability

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-scheduling/internal/clinic"
	"github.com/hackgods/clinic-scheduling/internal/slot"
)

// Calendar manages weekly templates. It holds no overlap logic.
type Calendar struct {
	repo    Repository
	doctors clinic.DoctorFinder
}

func NewCalendar(repo Repository, doctors clinic.DoctorFinder) *Calendar {
	return &Calendar{repo: repo, doctors: doctors}
}

// SetTemplate creates or replaces the doctor's template for weekday.
func (c *Calendar) SetTemplate(ctx context.Context, doctorID uuid.UUID, weekday time.Weekday, window slot.Interval, slotDurationMinutes int) (*Template, error) {
	if err := validate(weekday, window, slotDurationMinutes); err != nil {
		return nil, err
	}

	if _, err := c.doctors.FindDoctor(ctx, doctorID); err != nil {
		return nil, fmt.Errorf("load doctor: %w", err)
	}

	saved, err := c.repo.Upsert(ctx, Template{
		DoctorID:            doctorID,
		Weekday:             weekday,
		StartTime:           window.Start,
		EndTime:             window.End,
		SlotDurationMinutes: slotDurationMinutes,
	})
	if err != nil {
		return nil, fmt.Errorf("save availability template: %w", err)
	}
	return saved, nil
}

// GetTemplate returns the template governing weekday, or ErrTemplateNotFound.
func (c *Calendar) GetTemplate(ctx context.Context, doctorID uuid.UUID, weekday time.Weekday) (*Template, error) {
	t, err := c.repo.FindByDoctorAndWeekday(ctx, doctorID, weekday)
	if err != nil {
		return nil, fmt.Errorf("load availability template: %w", err)
	}
	return t, nil
}

func (c *Calendar) GetTemplateByID(ctx context.Context, id uuid.UUID) (*Template, error) {
	t, err := c.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load availability template: %w", err)
	}
	return t, nil
}

// ListTemplates returns the doctor's templates ordered by weekday.
func (c *Calendar) ListTemplates(ctx context.Context, doctorID uuid.UUID) ([]Template, error) {
	if _, err := c.doctors.FindDoctor(ctx, doctorID); err != nil {
		return nil, fmt.Errorf("load doctor: %w", err)
	}

	templates, err := c.repo.ListByDoctor(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("list availability templates: %w", err)
	}
	sort.Slice(templates, func(i, j int) bool {
		return templates[i].Weekday < templates[j].Weekday
	})
	return templates, nil
}

func (c *Calendar) DeleteTemplate(ctx context.Context, id uuid.UUID) error {
	if err := c.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete availability template: %w", err)
	}
	return nil
}

func validate(weekday time.Weekday, window slot.Interval, slotDurationMinutes int) error {
	switch {
	case weekday < time.Sunday || weekday > time.Saturday:
		return fmt.Errorf("%w: weekday %d out of range", ErrInvalidTemplate, weekday)
	case window.Start < 0 || window.End > slot.MinutesPerDay:
		return fmt.Errorf("%w: window must lie within one day", ErrInvalidTemplate)
	case window.Start >= window.End:
		return fmt.Errorf("%w: start time %s must be before end time %s", ErrInvalidTemplate, window.Start, window.End)
	case slotDurationMinutes <= 0 || slotDurationMinutes > slot.MinutesPerDay:
		return fmt.Errorf("%w: slot duration must be between 1 and %d minutes", ErrInvalidTemplate, slot.MinutesPerDay)
	}
	return nil
}
