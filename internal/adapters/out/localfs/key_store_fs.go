// internal/adapters/out/localfs/key_store_fs.go
package localfs

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/blocto/solana-go-sdk/types"

	tierdom "github.com/x1Brains/x1devtoolkit/internal/domain/tier"
	solanainfra "github.com/x1Brains/x1devtoolkit/internal/infra/solana"
)

var (
	ErrKeyFileExists    = errors.New("localfs: key file already exists")
	ErrPendingKeyExists = errors.New("localfs: pending key file already exists")
)

const pendingSuffix = ".pending"

// MintKeyStoreFS は tier ごとの mint 秘密鍵を keys/tier_<index>_<name>.json に保存します。
//
// 送信前に <file>.pending を作り、確定したら rename、失敗したら削除します。
// 既存の鍵ファイル（前回実行で作った live な mint の鍵）は上書きしません。
type MintKeyStoreFS struct {
	Dir string
}

func NewMintKeyStoreFS(dir string) *MintKeyStoreFS {
	d := strings.TrimSpace(dir)
	if d == "" {
		d = "keys"
	}
	return &MintKeyStoreFS{Dir: d}
}

// Path returns the final key file path for a tier.
func (s *MintKeyStoreFS) Path(index int, def tierdom.Definition) string {
	return filepath.Join(s.Dir, def.KeyFileName(index))
}

func (s *MintKeyStoreFS) Stage(index int, def tierdom.Definition, mintAcc types.Account) (string, error) {
	final := s.Path(index, def)
	if _, err := os.Stat(final); err == nil {
		return "", fmt.Errorf("%w: %s", ErrKeyFileExists, final)
	}

	pending := final + pendingSuffix
	if err := solanainfra.WriteKeypairFile(pending, mintAcc); err != nil {
		if errors.Is(err, solanainfra.ErrKeypairExists) {
			// 前回のクラッシュで残ったもの。live な mint の鍵かもしれないので触らない。
			return "", fmt.Errorf("%w: %s", ErrPendingKeyExists, pending)
		}
		return "", err
	}
	return pending, nil
}

func (s *MintKeyStoreFS) Commit(index int, def tierdom.Definition) (string, error) {
	final := s.Path(index, def)
	if _, err := os.Stat(final); err == nil {
		return "", fmt.Errorf("%w: %s", ErrKeyFileExists, final)
	}
	if err := os.Rename(final+pendingSuffix, final); err != nil {
		return "", fmt.Errorf("localfs: commit key file: %w", err)
	}
	log.Printf("[localfs] saved mint key: %s", final)
	return final, nil
}

func (s *MintKeyStoreFS) Discard(index int, def tierdom.Definition) error {
	err := os.Remove(s.Path(index, def) + pendingSuffix)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("localfs: discard key file: %w", err)
	}
	return nil
}
