// Package mqtt provides the MQTT transport layer for PetCare Core.
//
// This package wraps the Eclipse Paho client with connection management,
// automatic reconnection, subscription restoration, and PetCare topic
// conventions.
//
// # Topic Hierarchy
//
// All topics are scoped by the deployment site so multiple installations
// can share a broker:
//
//	petcare/{site}/telemetry/{device}   device -> server sensor readings
//	petcare/{site}/command/{device}     server -> device actuation commands
//	petcare/{site}/status/{device}      device -> server status reports
//	petcare/system/status               core online/offline (retained, LWT)
//
// # Features
//
//   - Auto-reconnect with exponential backoff
//   - Subscriptions restored on reconnect
//   - Last Will and Testament for crash detection
//   - Panic recovery around message handlers
//   - Bounded publish acknowledgement waits
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	topics := mqtt.NewTopics(cfg.Site.ID)
//	err = client.Subscribe(topics.AllTelemetry(), 1, handleTelemetry)
package mqtt
