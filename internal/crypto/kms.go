package crypto

import (
	"context"
	"encoding/base64"

	"cloud.google.com/go/kms/apiv1/kmspb"
	"github.com/googleapis/gax-go/v2"

	"github.com/GregMSThompson/dashboard-backend/internal/errs"
)

// kmsClient is the subset of *kms.KeyManagementClient used here.
type kmsClient interface {
	Encrypt(ctx context.Context, req *kmspb.EncryptRequest, opts ...gax.CallOption) (*kmspb.EncryptResponse, error)
	Decrypt(ctx context.Context, req *kmspb.DecryptRequest, opts ...gax.CallOption) (*kmspb.DecryptResponse, error)
}

type kms struct {
	client  kmsClient
	keyName string
}

func NewKMS(client kmsClient, keyName string) *kms {
	return &kms{client: client, keyName: keyName}
}

// KmsEncrypt encrypts plaintext using the configured KMS key name and returns base64 text.
func (k *kms) KmsEncrypt(ctx context.Context, plaintext string) (string, error) {
	if k.keyName == "" {
		return "", errs.NewEncryptionError("kms key name is not configured", nil)
	}
	resp, err := k.client.Encrypt(ctx, &kmspb.EncryptRequest{
		Name:      k.keyName,
		Plaintext: []byte(plaintext),
	})
	if err != nil {
		return "", errs.NewEncryptionError("failed to encrypt secret", err)
	}
	return base64.StdEncoding.EncodeToString(resp.Ciphertext), nil
}

// KmsDecrypt decrypts base64 ciphertext using the configured KMS key name.
func (k *kms) KmsDecrypt(ctx context.Context, ciphertext string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", errs.NewEncryptionError("stored secret is not valid base64", err)
	}
	resp, err := k.client.Decrypt(ctx, &kmspb.DecryptRequest{
		Name:       k.keyName,
		Ciphertext: raw,
	})
	if err != nil {
		return "", errs.NewEncryptionError("failed to decrypt secret", err)
	}
	return string(resp.Plaintext), nil
}
