package main

import (
	"calendar-sessions-backend/cmd/calendar-api/model"
	"calendar-sessions-backend/cmd/calendar-api/repository"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/goforj/godump"
	"github.com/google/uuid"
	"github.com/urfave/cli/v2"
)

func importCommand() *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Create events for a session from a CSV file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "session", Required: true, Usage: "Target session id"},
			&cli.StringFlag{Name: "file", Required: true, Usage: "CSV file with a title,description,location,attendees,start,end,status header"},
			&cli.BoolFlag{Name: "dry-run", Usage: "Validate and print the events without writing them"},
		},
		Action: func(c *cli.Context) error {
			cfg, log, err := bootstrap()
			if err != nil {
				return err
			}

			f, err := os.Open(c.String("file"))
			if err != nil {
				return fmt.Errorf("open csv: %w", err)
			}
			defer f.Close()

			events, err := readEventsCSV(f, c.String("session"), time.Now(), uuid.NewV7)
			if err != nil {
				return err
			}

			if c.Bool("dry-run") {
				godump.Dump(events)
				log.Info("dry run, nothing written", "session", c.String("session"), "count", len(events))
				return nil
			}

			db, err := openDB(c.Context, cfg, log)
			if err != nil {
				return err
			}
			defer closeDB(c.Context, db, log)

			eventRepo := repository.NewEventRepo(db)
			for i, event := range events {
				if err := eventRepo.CreateEvent(c.Context, event); err != nil {
					return fmt.Errorf("create event %d of %d: %w", i+1, len(events), err)
				}
			}

			log.Info("imported events", "session", c.String("session"), "count", len(events))
			return nil
		},
	}
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Write a session's events to stdout as CSV",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "session", Required: true, Usage: "Session id"},
			&cli.StringFlag{Name: "range-start", Usage: "Only events ending at or after this time"},
			&cli.StringFlag{Name: "range-end", Usage: "Only events starting at or before this time"},
		},
		Action: func(c *cli.Context) error {
			rng, err := parseRange(c.String("range-start"), c.String("range-end"))
			if err != nil {
				return err
			}

			cfg, log, err := bootstrap()
			if err != nil {
				return err
			}

			db, err := openDB(c.Context, cfg, log)
			if err != nil {
				return err
			}
			defer closeDB(c.Context, db, log)

			events, err := repository.NewEventRepo(db).ListEvents(c.Context, c.String("session"), rng)
			if err != nil {
				return err
			}

			return writeEventsCSV(c.App.Writer, events)
		},
	}
}

// readEventsCSV validates every row with the create rules before any is returned.
// Row numbers in errors count the header as line 1.
func readEventsCSV(r io.Reader, sessionID string, now time.Time, newID func() (uuid.UUID, error)) ([]model.Event, error) {
	var rows []*model.EventCSV
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	events := make([]model.Event, 0, len(rows))
	for i, row := range rows {
		fields, err := model.ParseCreateInput(row.Input())
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+2, err)
		}

		id, err := newID()
		if err != nil {
			return nil, err
		}
		events = append(events, fields.NewEvent(id.String(), sessionID, now))
	}

	return events, nil
}

func writeEventsCSV(w io.Writer, events []model.Event) error {
	rows := make([]*model.EventCSV, 0, len(events))
	for _, event := range events {
		row := model.NewEventCSV(event)
		rows = append(rows, &row)
	}
	return gocsv.Marshal(rows, w)
}

func parseRange(start, end string) (model.TimeRange, error) {
	var rng model.TimeRange
	if start != "" {
		t, err := model.ParseTimestamp(start, "range-start")
		if err != nil {
			return rng, err
		}
		rng.Start = &t
	}
	if end != "" {
		t, err := model.ParseTimestamp(end, "range-end")
		if err != nil {
			return rng, err
		}
		rng.End = &t
	}
	return rng, nil
}
