/*
Package events distributes change notifications inside one pipectl process.

After a write succeeds the API client publishes an Event naming what
changed ("agent.created", "settings.updated" and so on). List views
subscribe to the resources they display and reload when one of them
changes, so a list never shows a row that was just deleted through the same
client.

	client.DeleteAgent ──▶ Broker.Publish(agent.deleted)
	                              │
	                              ▼
	                 agents list view ──▶ Reload()

The broker runs a single distribution goroutine. Each subscriber has a
buffered channel; when it is full the event is dropped for that subscriber
only.
*/
package events
