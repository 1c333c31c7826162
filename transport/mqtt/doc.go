// Package mqtt publishes race sessions to an MQTT broker.
//
// Each session has two topics under a configurable prefix:
//
//	vectorrace/<session>/frame   retained JSON Frame: grid with car glyphs and car states
//	vectorrace/<session>/events  JSON Event: crash, victory and retirement lines
//
// Publisher.SessionUI plugs a publisher into a race as an engine.UI, so
// the server can fan a race out to MQTT the same way it does to websocket
// clients:
//
//	publisher, err := mqtt.Connect("tcp://localhost:1883", "vectorrace-server", "vectorrace")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer publisher.Close()
//
//	build := service.NewRaceBuilder(strategy.Factory(), hub.SessionUI, publisher.SessionUI)
//
// Publishing is asynchronous but ordered: one sender goroutine drains a queue,
// so the retained frame always holds the latest grid. Failures are logged and
// never stop a race.
package mqtt
