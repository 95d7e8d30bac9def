// Package authcore is an embeddable multi-factor authentication engine for
// device-local sessions. It orchestrates a primary email/password factor
// against a pluggable identity backend, a biometric shortcut with a
// windowed attempt budget, and a PIN fallback with its own lockout, and it
// locks the session when the hosting application is backgrounded.
//
// All persistent state lives behind the [vault.Vault] interface, an opaque
// encrypted key-value store, so the engine carries no state of its own and
// can be rebuilt at process start:
//
//	engine, err := authcore.New().
//		WithVault(vault.NewMemory()).
//		WithBackend(backend.NewRemote("https://api.example.com", nil)).
//		WithPrompter(prompter).
//		Build()
//	if err != nil {
//		// handle
//	}
//	defer engine.Close()
//
//	identity, err := engine.SignIn(ctx, email, password)
//
// Every operation returns a sentinel-classified error; the message for the
// presentation layer comes from [UserMessage], and lockouts carry a
// structured [LockoutError]. Lifecycle transitions are fed to
// [Engine.Lockout] so a backgrounded session re-locks.
package authcore
