/*
Package lodge is a deterministic dialog engine that collects real-estate search
preferences through a fixed sequence of questions.

The conversation is a finite state machine. Each user input moves the session
along a declared table of edges; once the dialog reaches its terminal step a
single finalization payload is emitted with the filters and preferences that
were gathered. The core is pure: persistence, transports and side-effects live
in adapters (pkg/adapters) and in the lifecycle service (pkg/lifecycle).

# Usage

	package main

	import (
		"context"
		"fmt"

		"github.com/aretw0/lodge"
	)

	func main() {
		eng := lodge.New()
		ctx := context.Background()

		state, prompts := eng.Start(ctx, "session-123", nil)
		fmt.Println(prompts[0].Text)

		for _, input := range []string{"Yes, please!", "Manchester"} {
			res, err := eng.Submit(ctx, "session-123", state, input)
			if err != nil {
				panic(err)
			}
			for _, p := range res.Prompts {
				fmt.Println(p.Text, p.Options)
			}
			state = res.State
		}
	}
*/
package lodge
