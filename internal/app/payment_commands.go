package app

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/hitoshi/projman/internal/model"
	"github.com/hitoshi/projman/internal/session"
)

// planOrder はプラン表示の順序。未知のプランは末尾にアルファベット順で並ぶ。
var planOrder = map[string]int{
	"free":       0,
	"pro":        1,
	"enterprise": 2,
}

// runPlans は利用可能なプランの一覧を表示する。
func (a *App) runPlans(ctx context.Context, args []string) error {
	fs := newFlagSet("plans", a.out)
	if err := fs.Parse(args); err != nil {
		return err
	}

	plans, err := a.client.GetPlans(ctx)
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(plans))
	for k := range plans {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		oi, iok := planOrder[keys[i]]
		oj, jok := planOrder[keys[j]]
		if iok && jok {
			return oi < oj
		}
		if iok != jok {
			return iok
		}
		return keys[i] < keys[j]
	})

	for _, key := range keys {
		plan := plans[key]
		price := "個別見積もり"
		if plan.Price != nil {
			price = fmt.Sprintf("₹%d/月", *plan.Price)
		}
		credits := fmt.Sprintf("%dクレジット", plan.Credits)
		if plan.Credits < 0 {
			credits = "無制限"
		}
		fmt.Fprintf(a.out, "%s（%s）\n", plan.Name, key)
		fmt.Fprintf(a.out, "  料金:       %s\n", price)
		fmt.Fprintf(a.out, "  クレジット: %s\n", credits)
		if len(plan.Features) > 0 {
			fmt.Fprintf(a.out, "  機能:       %s\n", strings.Join(plan.Features, " / "))
		}
	}
	return nil
}

// runSubscription は現在のサブスクリプション状態を表示する。
func (a *App) runSubscription(ctx context.Context, args []string) error {
	fs := newFlagSet("subscription", a.out)
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := a.requireAuth(); err != nil {
		return err
	}

	sub, err := a.client.GetSubscription(ctx)
	if err != nil {
		return err
	}

	// creditsはリモート側が正のため、取得のついでにキャッシュも更新する
	patch := session.UserPatch{Credits: &sub.Credits}
	if sub.Email != "" {
		patch.Email = &sub.Email
	}
	a.store.UpdateUser(patch)

	fmt.Fprintf(a.out, "プラン:     %s（%s）\n", sub.PlanName, sub.SubscriptionTier)
	fmt.Fprintf(a.out, "クレジット: %d\n", sub.Credits)
	if len(sub.PlanFeatures) > 0 {
		fmt.Fprintf(a.out, "機能:       %s\n", strings.Join(sub.PlanFeatures, " / "))
	}
	return nil
}

// runUpgrade はプランのアップグレードを行う。
// -payment-id が未指定の場合は決済オーダーを作成し、チェックアウト情報を表示する。
// -payment-id が指定された場合は決済完了を検証してクレジットを反映する。
func (a *App) runUpgrade(ctx context.Context, args []string) error {
	fs := newFlagSet("upgrade", a.out)
	plan := fs.String("plan", "", "プラン名（pro / enterprise）")
	paymentID := fs.String("payment-id", "", "決済完了後のRazorpay決済ID")
	orderID := fs.String("order-id", "", "決済完了後のRazorpayオーダーID")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := a.requireAuth(); err != nil {
		return err
	}
	if err := validatePlan(*plan); err != nil {
		return err
	}

	if *paymentID != "" {
		return a.verifyPayment(ctx, *plan, *paymentID, *orderID)
	}

	order, err := a.client.CreateOrder(ctx, *plan)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "決済オーダーを作成しました: %s\n", order.OrderID)
	fmt.Fprintf(a.out, "プラン:   %s\n", order.PlanName)
	fmt.Fprintf(a.out, "金額:     ₹%d.%02d %s\n", order.Amount/100, order.Amount%100, order.Currency)
	fmt.Fprintf(a.out, "Key ID:   %s\n", order.KeyID)
	fmt.Fprintln(a.out, "")
	fmt.Fprintln(a.out, "Razorpayチェックアウトで決済を完了した後、以下を実行してください:")
	fmt.Fprintf(a.out, "  projman upgrade -plan %s -payment-id <razorpay_payment_id> -order-id %s\n", *plan, order.OrderID)
	return nil
}

// verifyPayment は決済完了をリモートサービスで検証する。
func (a *App) verifyPayment(ctx context.Context, plan, paymentID, orderID string) error {
	resp, err := a.client.VerifyPayment(ctx, model.VerifyPaymentRequest{
		RazorpayPaymentID: paymentID,
		RazorpayOrderID:   orderID,
		Plan:              plan,
	})
	if err != nil {
		return err
	}

	if !resp.Success {
		return fmt.Errorf("決済の検証に失敗しました: %s", resp.Message)
	}

	a.store.UpdateUser(session.UserPatch{Credits: &resp.Credits})

	fmt.Fprintf(a.out, "アップグレードが完了しました: %s\n", resp.SubscriptionTier)
	fmt.Fprintf(a.out, "クレジット残高: %d\n", resp.Credits)
	return nil
}

// runPayments は決済履歴を表示する。
func (a *App) runPayments(ctx context.Context, args []string) error {
	fs := newFlagSet("payments", a.out)
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := a.requireAuth(); err != nil {
		return err
	}

	records, err := a.client.GetPaymentHistory(ctx)
	if err != nil {
		return err
	}

	if len(records) == 0 {
		fmt.Fprintln(a.out, "決済履歴はありません。")
		return nil
	}

	for _, rec := range records {
		fmt.Fprintf(a.out, "%s  ₹%d.%02d %s  %-10s  +%dクレジット  %s\n",
			rec.ID, rec.Amount/100, rec.Amount%100, rec.Currency,
			rec.Status, rec.CreditsAdded, rec.CreatedAt.Format("2006-01-02 15:04"))
	}
	return nil
}
