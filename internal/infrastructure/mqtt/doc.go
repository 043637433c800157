// Package mqtt publishes and watches the coursedb change feed.
//
// When enabled, every committed session's changes are published as JSON to
// coursedb/events/{kind} (for example coursedb/events/enrollment.added).
// Events are not retained. The client also keeps a retained online/offline
// status on coursedb/system/status, with a Last Will so a crashed process
// shows as offline.
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.PublishJSON(mqtt.Topics{}.Event("student.added"), change)
//
//	err = client.Subscribe(mqtt.Topics{}.AllEvents(), 1,
//	    func(topic string, payload []byte) error {
//	        kind, _ := mqtt.Topics{}.EventKind(topic)
//	        fmt.Println(kind, string(payload))
//	        return nil
//	    })
//
// # Security Considerations
//
//   - Enable TLS (broker.tls) for any broker not on localhost
//   - Credentials come from config or COURSEDB_MQTT_USERNAME / COURSEDB_MQTT_PASSWORD
//   - Payloads carry IDs only, never names or computing IDs
package mqtt
