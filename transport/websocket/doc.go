// Package websocket streams light-cycle boards to browser and desktop clients.
//
// A central Hub keeps the connected clients grouped by session ID. Each
// connection gets a read pump and a write pump goroutine; everything that
// touches the client set goes through the hub's Run loop.
//
// Message Protocol:
//
// Outgoing messages are JSON Message values, one per frame:
//   - state_update: the board after a REST call changed it
//   - tick: a service.TickResult from the realtime clock
//   - input: the board after a client pressed a button
//   - error: sent only to the client whose input failed
//
// Incoming messages are {"button": "a"}. They are passed to the handler
// installed with SetInputHandler.
//
// Usage:
//
//	hub := websocket.NewHub(logger)
//	hub.SetInputHandler(func(ctx context.Context, id, button string) (*service.InputResult, error) {
//		return gameService.PressButton(ctx, id, button)
//	})
//	go hub.Run(ctx)
//	go service.RunClock(ctx, gameService, frame, hub.Publish, logger)
package websocket
