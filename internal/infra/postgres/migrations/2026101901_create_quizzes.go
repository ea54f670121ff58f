package migrations

func init() {
	Migrations.MustRegister(execFile("create_quizzes.up.sql"), dropTable("quizzes"))
}
