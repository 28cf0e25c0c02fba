// Package auth manages the AWS credentials used to call Bedrock.
//
// In ambient mode the process's own credential chain is used as is. In
// delegated mode a [Manager] assumes a role through a [Broker] (AWS STS in
// production), holds the resulting short-lived credential, and replaces it
// shortly before it expires:
//
//	cfg, _ := config.LoadDefaultConfig(ctx, config.WithRegion("us-east-1"))
//	mgr := auth.NewManager(auth.NewSTSBroker(cfg),
//	    auth.WithRoleARN("arn:aws:iam::123456789012:role/bedrock-invoke"),
//	    auth.WithAmbientCredentials(cfg.Credentials),
//	)
//	if err := mgr.EnsureReady(ctx); err != nil {
//	    return err
//	}
//
// Manager implements aws.CredentialsProvider, so it can be handed to any
// SDK client or request signer.
package auth
