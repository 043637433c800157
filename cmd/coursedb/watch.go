package main

import (
	"fmt"
	"sync"

	"github.com/spf13/cobra"

	"github.com/nerrad567/coursedb/internal/infrastructure/mqtt"
)

func newWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print change events from the MQTT feed until interrupted",
		Long: `Subscribe to coursedb/events/# and print every committed change as
"<kind> <json>". Uses the mqtt section of the config even when
mqtt.enabled is false.

Example:
  coursedb watch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := a.connectMQTT(cmd.Context())
			if err != nil {
				return err
			}
			defer a.closeMQTT(client)

			var mu sync.Mutex
			err = client.Subscribe(mqtt.Topics{}.AllEvents(), byte(a.cfg.MQTT.QoS), func(topic string, payload []byte) error {
				mu.Lock()
				defer mu.Unlock()
				return printEvent(a, topic, payload)
			})
			if err != nil {
				return fmt.Errorf("subscribing to change events: %w", err)
			}

			a.log.Info("watching change events", "topic", mqtt.Topics{}.AllEvents())
			<-cmd.Context().Done()

			if err := client.Unsubscribe(mqtt.Topics{}.AllEvents()); err != nil {
				a.log.Warn("error unsubscribing from change events", "error", err)
			}
			return nil
		},
	}
}

// printEvent writes one event line. Topics outside the event prefix are
// rejected.
func printEvent(a *app, topic string, payload []byte) error {
	kind, ok := mqtt.Topics{}.EventKind(topic)
	if !ok {
		return fmt.Errorf("unexpected topic %q", topic)
	}
	_, err := fmt.Fprintf(a.out, "%s %s\n", kind, payload)
	return err
}
