package app

import "testing"

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want Command
	}{
		{"引数なしはhelp", []string{}, CommandHelp},
		{"register", []string{"register"}, CommandRegister},
		{"login", []string{"login", "-email", "a@example.com"}, CommandLogin},
		{"google-login", []string{"google-login"}, CommandGoogleLogin},
		{"onboard", []string{"onboard"}, CommandOnboard},
		{"logout", []string{"logout"}, CommandLogout},
		{"whoami", []string{"whoami"}, CommandWhoami},
		{"generate", []string{"generate", "-subject", "OS"}, CommandGenerate},
		{"status", []string{"status", "-job", "j1"}, CommandStatus},
		{"watch", []string{"watch"}, CommandWatch},
		{"preview", []string{"preview"}, CommandPreview},
		{"download", []string{"download"}, CommandDownload},
		{"history", []string{"history"}, CommandHistory},
		{"plans", []string{"plans"}, CommandPlans},
		{"subscription", []string{"subscription"}, CommandSubscription},
		{"upgrade", []string{"upgrade"}, CommandUpgrade},
		{"payments", []string{"payments"}, CommandPayments},
		{"usage", []string{"usage"}, CommandUsage},
		{"audit-logs", []string{"audit-logs"}, CommandAuditLogs},
		{"help", []string{"help"}, CommandHelp},
		{"未知のコマンドはhelp", []string{"unknown"}, CommandHelp},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseCommand(tt.args); got != tt.want {
				t.Errorf("ParseCommand(%v) = %q, want %q", tt.args, got, tt.want)
			}
		})
	}
}
