package auth

import (
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"

	"github.com/petal-labs/bedrockchat/core"
)

// credentialSource is reported in aws.Credentials.Source for delegated
// credentials.
const credentialSource = "bedrockchat.AssumeRole"

// DelegatedCredential is a short-lived credential issued by the identity
// broker. Values are never persisted; the secret parts redact themselves
// when printed or marshaled.
type DelegatedCredential struct {
	AccessKeyID     string
	SecretAccessKey core.Secret
	SessionToken    core.Secret
	Expires         time.Time
}

// ExpiresWithin reports whether the credential expires before now+margin.
// A credential exactly at the boundary counts as expiring.
func (c *DelegatedCredential) ExpiresWithin(now time.Time, margin time.Duration) bool {
	return !now.Add(margin).Before(c.Expires)
}

// AWS converts the credential for use with the AWS SDK and request signer.
func (c *DelegatedCredential) AWS() aws.Credentials {
	return aws.Credentials{
		AccessKeyID:     c.AccessKeyID,
		SecretAccessKey: c.SecretAccessKey.Expose(),
		SessionToken:    c.SessionToken.Expose(),
		Source:          credentialSource,
		CanExpire:       true,
		Expires:         c.Expires,
	}
}

// Identity is the caller identity reported by the broker.
type Identity struct {
	Account string
	ARN     string
	UserID  string
}
