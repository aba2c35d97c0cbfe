// internal/infra/solana/keypair.go
package solana

import (
	"context"
	"crypto/ed25519"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/blocto/solana-go-sdk/types"
)

var (
	ErrKeypairNotFound = errors.New("keypair: file not found")
	ErrKeypairInvalid  = errors.New("keypair: invalid keypair json")
	ErrKeypairExists   = errors.New("keypair: file already exists")
)

// DefaultKeypairPath は solana-keygen のデフォルト出力先 (~/.config/solana/id.json) です。
func DefaultKeypairPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		home = "~"
	}
	return filepath.Join(home, ".config", "solana", "id.json")
}

// DecodeKeypairJSON は solana-keygen 形式の keypair JSON から 64 バイトの鍵を復元し、
// types.Account を返します。
// - 正: [u8;64]
// - 互換: [int,...]（0..255 の範囲外はエラー）
func DecodeKeypairJSON(data []byte) (types.Account, error) {
	var ints []int
	if err := json.Unmarshal(data, &ints); err != nil {
		return types.Account{}, fmt.Errorf("%w: %v", ErrKeypairInvalid, err)
	}
	if len(ints) != ed25519.PrivateKeySize {
		return types.Account{}, fmt.Errorf("%w: want %d bytes, got %d", ErrKeypairInvalid, ed25519.PrivateKeySize, len(ints))
	}

	b := make([]byte, len(ints))
	for i, v := range ints {
		if v < 0 || v > 255 {
			return types.Account{}, fmt.Errorf("%w: byte out of range at %d: %d", ErrKeypairInvalid, i, v)
		}
		b[i] = byte(v)
	}

	acc, err := types.AccountFromBytes(b)
	if err != nil {
		return types.Account{}, fmt.Errorf("%w: AccountFromBytes: %v", ErrKeypairInvalid, err)
	}
	return acc, nil
}

// EncodeKeypairJSON は秘密鍵を Solana CLI と互換の JSON 配列 [int,...] にします。
func EncodeKeypairJSON(acc types.Account) ([]byte, error) {
	priv := acc.PrivateKey
	if len(priv) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("%w: unexpected private key length %d", ErrKeypairInvalid, len(priv))
	}
	ints := make([]int, len(priv))
	for i, v := range priv {
		ints[i] = int(v)
	}
	return json.Marshal(ints)
}

// LoadKeypairFile reads a keypair file. A missing file is reported as ErrKeypairNotFound.
func LoadKeypairFile(path string) (types.Account, error) {
	p := strings.TrimSpace(path)
	if p == "" {
		return types.Account{}, fmt.Errorf("%w: path is empty", ErrKeypairNotFound)
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return types.Account{}, fmt.Errorf("%w: %s", ErrKeypairNotFound, p)
		}
		return types.Account{}, fmt.Errorf("read keypair %s: %w", p, err)
	}
	return DecodeKeypairJSON(data)
}

// WriteKeypairFile writes acc to path with mode 0600 and never overwrites an existing file.
func WriteKeypairFile(path string, acc types.Account) error {
	data, err := EncodeKeypairJSON(acc)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create keypair dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%w: %s", ErrKeypairExists, path)
		}
		return fmt.Errorf("create keypair file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("write keypair file: %w", err)
	}
	return f.Close()
}

// FileKeySource loads the operator keypair from a local solana-keygen file.
type FileKeySource struct {
	Path string
}

func NewFileKeySource(path string) *FileKeySource {
	p := strings.TrimSpace(path)
	if p == "" {
		p = DefaultKeypairPath()
	}
	return &FileKeySource{Path: p}
}

func (s *FileKeySource) LoadOperator(ctx context.Context) (types.Account, error) {
	_ = ctx

	acc, err := LoadKeypairFile(s.Path)
	if err != nil {
		return types.Account{}, err
	}
	log.Printf("[solana.keypair] loaded operator keypair: path=%s pubkey=%s", s.Path, acc.PublicKey.ToBase58())
	return acc, nil
}
