// Package core provides the bedrockchat client and the types shared by its
// provider.
//
// # Client and Provider
//
// The primary entry point is [Client], which wraps a [Provider] and adds
// telemetry, optional retries, and a fluent builder API:
//
//	provider := bedrock.New(creds, bedrock.WithRegion("us-east-1"))
//	client := core.NewClient(provider,
//	    core.WithTelemetry(myTelemetryHook),
//	)
//
// Retries are off unless a policy is supplied with [WithRetryPolicy]. Errors
// therefore reach the caller exactly as the provider reported them.
//
// # Conversations
//
// [Client.GenerateResponse] and [Client.GenerateStreamingResponse] take an
// ordered list of [Message] turns:
//
//	reply, err := client.GenerateResponse(ctx, []core.Message{
//	    {Role: core.RoleSystem, Content: "Answer briefly."},
//	    {Role: core.RoleUser, Content: "What is Bedrock?"},
//	})
//
// The [ChatBuilder] offers the same thing fluently, with per-request
// overrides:
//
//	resp, err := client.Chat("").
//	    System("You are a helpful assistant.").
//	    User("Hello!").
//	    Temperature(0.2).
//	    GetResponse(ctx)
//
// ChatBuilder is NOT thread-safe. Use [ChatBuilder.Clone] to fan out from a
// shared base.
//
// # Streaming
//
// [ChatStream] has three channels:
//   - Ch: emits text deltas in order
//   - Err: emits at most one error
//   - Final: emits the completed response on success
//
// [ForEachDelta] hands each delta to a callback; [DrainStream] accumulates
// them into a [ChatResponse]. Deltas delivered before a failure stay
// delivered.
//
// # Errors
//
// Credential failures ([ErrBrokerUnavailable], [ErrDelegationDenied],
// [ErrInitializationFailed]) are distinct from upstream failures, all of
// which wrap [ErrUpstream]. Upstream errors usually arrive as a
// [*ProviderError] carrying the HTTP status and request id.
package core
