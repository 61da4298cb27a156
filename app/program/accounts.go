package program

import (
	"moviereview/app/pubkey"
	"moviereview/app/runtime"
	"moviereview/app/services"
)

func expectCount(accounts []runtime.AccountMeta, n int) error {
	if len(accounts) < n {
		return services.Validation("not enough account keys: want %d, got %d", n, len(accounts))
	}
	return nil
}

func expectAddress(meta runtime.AccountMeta, role string, want pubkey.PublicKey) error {
	if meta.PublicKey != want {
		return services.SeedMismatch("%s: expected %s, got %s", role, want, meta.PublicKey)
	}
	return nil
}

func expectSigner(meta runtime.AccountMeta, role string) error {
	if !meta.IsSigner {
		return services.Unauthorized("%s %s must sign", role, meta.PublicKey)
	}
	return nil
}

func expectWritable(meta runtime.AccountMeta, role string) error {
	if !meta.IsWritable {
		return services.Unauthorized("%s %s must be writable", role, meta.PublicKey)
	}
	return nil
}

func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
