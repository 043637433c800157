package main

import (
	"context"
	"errors"

	"github.com/nerrad567/coursedb/internal/enrollment"
	"github.com/nerrad567/coursedb/internal/infrastructure/logging"
	"github.com/nerrad567/coursedb/internal/infrastructure/mqtt"
)

// eventPublisher is the part of *mqtt.Client the change feed needs.
type eventPublisher interface {
	PublishJSON(topic string, v any) error
}

// changePublisher adapts an MQTT client to enrollment.ChangeNotifier.
type changePublisher struct {
	publisher eventPublisher
	log       *logging.Logger
}

// NotifyChanges implements enrollment.ChangeNotifier. Every change is
// attempted; failures are joined.
func (p *changePublisher) NotifyChanges(ctx context.Context, changes []enrollment.Change) error {
	var errs []error
	for _, change := range changes {
		if err := ctx.Err(); err != nil {
			return errors.Join(append(errs, err)...)
		}
		if err := p.publisher.PublishJSON(mqtt.Topics{}.Event(string(change.Kind)), change); err != nil {
			errs = append(errs, err)
			continue
		}
		p.log.Debug("change published", "kind", change.Kind, "student_id", change.StudentID, "crn", change.CRN)
	}
	return errors.Join(errs...)
}
