package directory

import "context"

//go:generate mockgen -source=interfaces.go -destination=../mocks/mock_directory.go -package=mocks

// Directory はディレクトリ操作のインターフェース
type Directory interface {
	// Bind はユーザー資格情報を検証し、結果区分を返す。
	// 接続障害のみerrorとなり、資格情報の問題はBindOutcomeで表現される。
	Bind(ctx context.Context, conn *ConnConfig, userName, password string) (BindOutcome, error)

	// Search はユーザープロファイルを検索する。
	// サービスアカウントでバインドし、該当ユーザーのエントリを取得する。
	Search(ctx context.Context, conn *ConnConfig, userName string) (*Profile, error)

	// ChangePassword はユーザーのパスワードを変更する。
	// ADの場合はunicodePwd属性の差し替え、それ以外はPasswordModify拡張操作を使用する。
	ChangePassword(ctx context.Context, conn *ConnConfig, userName, oldPassword, newPassword string) error
}
