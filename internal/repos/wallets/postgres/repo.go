package wallets

import (
	"github.com/fastprodman/wagerengine/internal/infra/pgutils"
	"github.com/fastprodman/wagerengine/internal/repos/wallets"
)

var _ wallets.Wallets = (*walletsRepo)(nil)

type walletsRepo struct{ db pgutils.DBTX }

func New(db pgutils.DBTX) *walletsRepo {
	return &walletsRepo{db: db}
}
