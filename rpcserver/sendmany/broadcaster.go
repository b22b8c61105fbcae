package sendmany

import (
	"context"

	"github.com/btcsuite/btcd/wire"
	"github.com/decred/dcrd/lru"
	"github.com/sat20-labs/sendmany/common"
	sm "github.com/sat20-labs/sendmany/sendmany"
)

// dedupeBroadcaster skips transactions this service already sent, so a
// retried request doesn't hit the node twice.
type dedupeBroadcaster struct {
	inner sm.Broadcaster
	sent  *lru.Cache
}

func (b *dedupeBroadcaster) Broadcast(ctx context.Context, tx *wire.MsgTx) (string, error) {
	txid := tx.TxHash().String()
	if b.sent.Contains(txid) {
		common.GetLoggerEntry("rpc").Infof("tx %s was already broadcast", txid)
		return txid, nil
	}
	sent, err := b.inner.Broadcast(ctx, tx)
	if err != nil {
		return "", err
	}
	b.sent.Add(sent)
	return sent, nil
}
