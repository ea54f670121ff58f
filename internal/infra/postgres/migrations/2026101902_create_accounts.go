package migrations

func init() {
	Migrations.MustRegister(execFile("create_accounts.up.sql"), dropTable("accounts"))
}
