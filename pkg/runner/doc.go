/*
Package runner implements the interactive chat loop and input hygiene for Lodge.

It acts as the bridge between a Conversation (usually the lifecycle service)
and a person at a terminal or a program speaking JSON lines. Every input is
sanitized before it reaches the engine.

# Key Components

  - Runner: drives one conversation from the opening prompt to completion.
  - IOHandler: decouples how prompts are shown and inputs are read.
  - TextHandler: numbered options for interactive terminal usage.
  - JSONHandler: one JSON object per line for scripting.

# Usage

	r := runner.NewRunner(service,
		runner.WithInputHandler(runner.NewTextHandler(os.Stdin, os.Stdout)),
	)

	if _, err := r.Run(ctx); err != nil {
		log.Fatal(err)
	}
*/
package runner
