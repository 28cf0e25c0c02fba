package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/aws/smithy-go"

	"github.com/petal-labs/bedrockchat/core"
)

// Broker exchanges the process's ambient identity for delegated credentials.
type Broker interface {
	// AssumeDelegatedIdentity returns a fresh credential for roleARN.
	AssumeDelegatedIdentity(ctx context.Context, roleARN, sessionName string, duration time.Duration) (*DelegatedCredential, error)

	// WhoAmI reports the identity behind cred, or behind the ambient
	// credentials when cred is nil.
	WhoAmI(ctx context.Context, cred *DelegatedCredential) (*Identity, error)
}

// STSAPI is the subset of the STS client used by STSBroker.
type STSAPI interface {
	AssumeRole(ctx context.Context, params *sts.AssumeRoleInput, optFns ...func(*sts.Options)) (*sts.AssumeRoleOutput, error)
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// STSBroker is a Broker backed by AWS STS. Each call is a single attempt;
// the SDK retryer is disabled.
type STSBroker struct {
	client STSAPI
}

// NewSTSBroker creates a broker from an AWS config, which supplies the
// region and ambient credential chain.
func NewSTSBroker(cfg aws.Config) *STSBroker {
	return &STSBroker{client: sts.NewFromConfig(cfg, func(o *sts.Options) {
		o.Retryer = aws.NopRetryer{}
	})}
}

// NewSTSBrokerWithClient creates a broker around an existing STS client.
func NewSTSBrokerWithClient(client STSAPI) *STSBroker {
	return &STSBroker{client: client}
}

// AssumeDelegatedIdentity calls sts:AssumeRole.
func (b *STSBroker) AssumeDelegatedIdentity(ctx context.Context, roleARN, sessionName string, duration time.Duration) (*DelegatedCredential, error) {
	out, err := b.client.AssumeRole(ctx, &sts.AssumeRoleInput{
		RoleArn:         aws.String(roleARN),
		RoleSessionName: aws.String(sessionName),
		DurationSeconds: aws.Int32(int32(duration / time.Second)),
	})
	if err != nil {
		return nil, classifyBrokerError("AssumeRole", err)
	}

	c := out.Credentials
	if c == nil || c.AccessKeyId == nil || c.SecretAccessKey == nil || c.SessionToken == nil || c.Expiration == nil {
		return nil, fmt.Errorf("%w: AssumeRole response for %s carried no credentials", core.ErrDelegationDenied, roleARN)
	}

	return &DelegatedCredential{
		AccessKeyID:     aws.ToString(c.AccessKeyId),
		SecretAccessKey: core.NewSecret(aws.ToString(c.SecretAccessKey)),
		SessionToken:    core.NewSecret(aws.ToString(c.SessionToken)),
		Expires:         aws.ToTime(c.Expiration),
	}, nil
}

// WhoAmI calls sts:GetCallerIdentity.
func (b *STSBroker) WhoAmI(ctx context.Context, cred *DelegatedCredential) (*Identity, error) {
	var optFns []func(*sts.Options)
	if cred != nil {
		static := credentials.NewStaticCredentialsProvider(
			cred.AccessKeyID, cred.SecretAccessKey.Expose(), cred.SessionToken.Expose())
		optFns = append(optFns, func(o *sts.Options) {
			o.Credentials = static
		})
	}

	out, err := b.client.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{}, optFns...)
	if err != nil {
		return nil, classifyBrokerError("GetCallerIdentity", err)
	}

	return &Identity{
		Account: aws.ToString(out.Account),
		ARN:     aws.ToString(out.Arn),
		UserID:  aws.ToString(out.UserId),
	}, nil
}

// transientCodes are STS error codes that indicate the service, not the
// request, is at fault.
var transientCodes = map[string]bool{
	"Throttling":                  true,
	"ThrottlingException":         true,
	"RequestLimitExceeded":        true,
	"ServiceUnavailable":          true,
	"ServiceUnavailableException": true,
	"InternalFailure":             true,
	"InternalError":               true,
	"RequestTimeout":              true,
	"RequestTimeoutException":     true,
}

// classifyBrokerError maps an STS failure onto ErrDelegationDenied or
// ErrBrokerUnavailable, keeping the original error in the chain.
func classifyBrokerError(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("sts %s: %w: %w", op, core.ErrBrokerUnavailable, err)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		if transientCodes[apiErr.ErrorCode()] {
			return fmt.Errorf("sts %s: %w: %w", op, core.ErrBrokerUnavailable, err)
		}
		return fmt.Errorf("sts %s: %w: %w", op, core.ErrDelegationDenied, err)
	}

	return fmt.Errorf("sts %s: %w: %w", op, core.ErrBrokerUnavailable, err)
}
