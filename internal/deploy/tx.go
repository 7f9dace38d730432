package deploy

import (
	"fmt"
	"os"

	"github.com/AdguardTeam/golibs/log"
)

// FileTx is a transactional write to a single live file: capture the prior
// content, write the new content, then either keep it or restore the exact
// prior bytes.  Beginning the transaction before any write is what makes
// re-running after a crash or failure safe: the backup always reflects the
// state immediately prior to this run's own write.
type FileTx struct {
	path    string
	backup  []byte
	existed bool
	written bool
}

// BeginFileTx captures the current content of path.  A missing file is not
// an error: the transaction records that nothing existed and Revert removes
// the file instead of restoring it.
func BeginFileTx(path string) (tx *FileTx, err error) {
	tx = &FileTx{path: path}

	// #nosec G304 -- The path is produced by this program.
	tx.backup, err = os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("backing up %s: %w", path, err)
		}

		log.Debug("deploy: no prior document at %s", path)

		return tx, nil
	}

	tx.existed = true

	return tx, nil
}

// Existed reports whether a prior document existed when the transaction
// began.
func (tx *FileTx) Existed() (ok bool) {
	return tx.existed
}

// Write places the new content at the live path.  It must not be called
// twice within one transaction.
func (tx *FileTx) Write(content []byte, perm os.FileMode) (err error) {
	if tx.written {
		return fmt.Errorf("%s already written in this transaction", tx.path)
	}

	err = os.WriteFile(tx.path, content, perm)
	if err != nil {
		return fmt.Errorf("writing %s: %w", tx.path, err)
	}

	tx.written = true

	return nil
}

// Revert restores the exact bytes captured by BeginFileTx, or removes the
// file if nothing existed before the transaction.
func (tx *FileTx) Revert() (err error) {
	if !tx.written {
		return nil
	}

	if !tx.existed {
		err = os.Remove(tx.path)
		if err != nil {
			return fmt.Errorf("removing %s: %w", tx.path, err)
		}

		return nil
	}

	err = os.WriteFile(tx.path, tx.backup, 0o644)
	if err != nil {
		return fmt.Errorf("restoring %s: %w", tx.path, err)
	}

	return nil
}
