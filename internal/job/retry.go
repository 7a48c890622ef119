package job

import "time"

const (
	// maxBackoff はポーリングの指数バックオフの最大遅延。
	maxBackoff = 30 * time.Second
)

// PollPolicy はステータスポーリングの制御パラメータを保持する。
// 固定2秒間隔・無制限という挙動は既知の弱点のため、上限付きのポリシーに
// 置き換えている。上限到達時もサーバー側の生成は継続する。
type PollPolicy struct {
	// Interval はポーリングの基本間隔。
	Interval time.Duration
	// MaxAttempts はポーリングの最大試行回数。0以下は無制限。
	MaxAttempts int
	// MaxElapsed はポーリング全体の経過時間上限。0以下は無制限。
	MaxElapsed time.Duration
	// MaxConsecutiveFailures は連続トランスポート失敗の上限。
	// 一時的な失敗は握りつぶして次のティックで再試行するが、
	// この回数連続した場合は打ち切る。0以下は無制限。
	MaxConsecutiveFailures int
}

// DefaultPollPolicy はデフォルトのポーリングポリシーを返す。
func DefaultPollPolicy() PollPolicy {
	return PollPolicy{
		Interval:               2 * time.Second,
		MaxAttempts:            450,
		MaxElapsed:             15 * time.Minute,
		MaxConsecutiveFailures: 10,
	}
}

// CalculateBackoff は連続失敗回数に基づいて次のポーリングまでの遅延を計算する。
// 基本間隔から2倍ずつ増加し、最大30秒で頭打ちになる。
// 失敗していない場合は基本間隔をそのまま返す。
func CalculateBackoff(interval time.Duration, consecutiveFailures int) time.Duration {
	delay := interval
	for i := 0; i < consecutiveFailures; i++ {
		delay *= 2
		if delay > maxBackoff {
			return maxBackoff
		}
	}
	return delay
}
