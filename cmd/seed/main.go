package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"go.uber.org/zap"

	"github.com/hackgods/clinic-scheduling/internal/app"
	"github.com/hackgods/clinic-scheduling/internal/availability"
	"github.com/hackgods/clinic-scheduling/internal/clinic"
	"github.com/hackgods/clinic-scheduling/internal/config"
	"github.com/hackgods/clinic-scheduling/internal/logger"
	"github.com/hackgods/clinic-scheduling/internal/slot"
)

var specialties = []string{
	"Dermatology",
	"Cardiology",
	"General Practice",
	"Orthopedics",
	"Endocrinology",
	"Neurology",
	"Pediatrics",
	"Psychiatry",
	"Ophthalmology",
	"ENT",
}

var slotDurations = []int{15, 20, 30, 45, 60}

func main() {
	doctors := flag.Int("doctors", 100, "number of doctors to create")
	patients := flag.Int("patients", 9000, "number of patients to create")
	flag.Parse()

	if err := run(*doctors, *patients); err != nil {
		fmt.Fprintf(os.Stderr, "seed: %v\n", err)
		os.Exit(1)
	}
}

func run(doctorCount, patientCount int) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config load: %w", err)
	}

	log, err := logger.New(cfg)
	if err != nil {
		return fmt.Errorf("logger init: %w", err)
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	application, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer application.Close()

	faker := gofakeit.New(uint64(time.Now().UnixNano()))

	if err := seedDoctors(ctx, log, faker, application.Directory, application.Calendar, doctorCount); err != nil {
		return fmt.Errorf("seed doctors: %w", err)
	}
	if err := seedPatients(ctx, log, faker, application.Directory, patientCount); err != nil {
		return fmt.Errorf("seed patients: %w", err)
	}

	log.Info("seed complete")
	return nil
}

// seedDoctors creates doctors working Monday to Friday, each with a random
// morning start, day length and slot size.
func seedDoctors(ctx context.Context, log *zap.Logger, faker *gofakeit.Faker, dir clinic.Directory, cal *availability.Calendar, count int) error {
	log.Info("seeding doctors", zap.Int("count", count))

	for i := 0; i < count; i++ {
		specialty := specialties[faker.Number(0, len(specialties)-1)]
		d, err := dir.SaveDoctor(ctx, clinic.Doctor{
			Name:      "Dr. " + faker.LastName(),
			Specialty: &specialty,
		})
		if err != nil {
			return err
		}

		start := slot.NewClock(faker.Number(7, 10), 0)
		window := slot.Interval{Start: start, End: start.Add(faker.Number(6, 9) * 60)}
		duration := slotDurations[faker.Number(0, len(slotDurations)-1)]

		for wd := time.Monday; wd <= time.Friday; wd++ {
			if _, err := cal.SetTemplate(ctx, d.ID, wd, window, duration); err != nil {
				return fmt.Errorf("template for %s: %w", d.ID, err)
			}
		}
	}

	log.Info("doctors seeded")
	return nil
}

func seedPatients(ctx context.Context, log *zap.Logger, faker *gofakeit.Faker, dir clinic.Directory, count int) error {
	log.Info("seeding patients", zap.Int("count", count))

	const progressEvery = 500

	for i := 1; i <= count; i++ {
		email := faker.Email()
		if _, err := dir.SavePatient(ctx, clinic.Patient{Name: faker.Name(), Email: &email}); err != nil {
			return err
		}
		if i%progressEvery == 0 || i == count {
			log.Info("patients seeded", zap.Int("done", i), zap.Int("total", count))
		}
	}

	return nil
}
