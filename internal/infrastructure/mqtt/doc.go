// Package mqtt publishes the optional record change feed.
//
// When enabled, every successful mutation made through the command surface
// is announced on an MQTT broker so other tools on the club's network
// (a treasurer's dashboard, a sync job) can react without polling the
// database file.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Last Will and Testament (LWT) for offline detection
//
// # Topics
//
//	<prefix>/system/status      retained online/offline status
//	<prefix>/changes/<table>    {"table","id","op","at"} per mutation
//
// # Security Considerations
//
//   - Payloads carry table names and record ids only, never personal data
//   - Credentials should come from TSKPAY_MQTT_USERNAME / TSKPAY_MQTT_PASSWORD
//   - Enable TLS (cfg.Broker.TLS) for any broker off the local machine
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.ChangeFeed.MQTT, cfg.ChangeFeed.TopicPrefix)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	feed := mqtt.NewChangeFeed(client, cfg.ChangeFeed.TopicPrefix, client.QoS())
//	feed.NotifyChange(ctx, "members", "mem-1", mqtt.OpCreate)
package mqtt
