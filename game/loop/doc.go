// Package loop hosts a tile pairs engine on its own goroutine.
//
// The engine is single-threaded. A Loop gives it the two clocks it expects,
// an animation frame driver (60 frames per second by default) and the
// fixed-period countdown timer from the board configuration, and funnels
// every outside call through one execution queue:
//
//	l := loop.New(eng, loop.WithOnChange(func(s engine.Snapshot) {
//		hub.BroadcastState(id, &s)
//	}))
//	go l.Run(ctx)
//
//	var res engine.ClickResult
//	err := l.Do(ctx, func(e engine.Engine) {
//		res = e.ClickCell(2, 3)
//	})
//
// Do returns ErrLoopStopped once the loop has been stopped.
package loop
