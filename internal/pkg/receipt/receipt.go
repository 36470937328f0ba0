package receipt

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"shg-finance/internal/pkg/timeutil"

	"github.com/google/uuid"
)

const (
	DepositPrefix   = "SD"
	RepaymentPrefix = "RP"
)

// Issuer numbers receipts for one process. Replicas sharing a database get
// distinct instance tags, so their sequences never collide.
type Issuer struct {
	instance string
	seq      atomic.Uint64
}

// NewIssuer tags the issuer with the first eight hex digits of a random UUID
func NewIssuer() *Issuer {
	return &Issuer{instance: strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])}
}

// Next returns PREFIX-yyyymmddhhmmss-NNNNNN-INSTANCE
func (i *Issuer) Next(prefix string, at time.Time) string {
	n := i.seq.Add(1)
	return fmt.Sprintf("%s-%s-%06d-%s", prefix, timeutil.Format(at, timeutil.ReceiptLayout), n%1000000, i.instance)
}

var defaultIssuer = NewIssuer()

// Next issues a receipt number from the process-wide issuer
func Next(prefix string, at time.Time) string {
	return defaultIssuer.Next(prefix, at)
}
