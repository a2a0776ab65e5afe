package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"klimr/backend/internal/dto"
	"klimr/backend/internal/model"
	"klimr/backend/internal/repository"
	"klimr/backend/internal/service"
	"klimr/backend/pkg/jwt"
)

// readPassword 可在测试中替换
var readPassword = func(fd int) ([]byte, error) { return term.ReadPassword(fd) }

var errEmptyPassword = errors.New("密码不能为空")

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "管理本地登录账号",
}

var accountAddOpts struct {
	personID string
	role     string
}

var accountAddCmd = &cobra.Command{
	Use:   "add USERNAME",
	Short: "为已有人员创建本地账号（密码交互输入）",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		switch accountAddOpts.role {
		case model.RoleAdmin, model.RoleTeacher, model.RoleStudent:
		default:
			return fmt.Errorf("未知角色: %s", accountAddOpts.role)
		}
		password, err := promptPassword(cmd.ErrOrStderr(), true)
		if err != nil {
			return err
		}
		return withAuthService(func(svc service.AuthService) error {
			account, err := svc.CreateAccount(cmd.Context(), &dto.CreateAccountRequest{
				PersonID: accountAddOpts.personID,
				Username: args[0],
				Password: password,
				Role:     accountAddOpts.role,
			}, "")
			if err != nil {
				return describe(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "账号已创建: %s (%s)\n", account.Username, account.ID)
			return nil
		})
	},
}

var accountPasswdCmd = &cobra.Command{
	Use:   "passwd USERNAME",
	Short: "重置本地账号密码",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := promptPassword(cmd.ErrOrStderr(), true)
		if err != nil {
			return err
		}
		return withAuthService(func(svc service.AuthService) error {
			if err := svc.ResetPassword(cmd.Context(), args[0], password); err != nil {
				return describe(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "密码已重置")
			return nil
		})
	},
}

var accountUnlink bool

var accountLinkCmd = &cobra.Command{
	Use:   "link USERNAME [SUBJECT]",
	Short: "绑定外部身份（oid/sub）到本地账号",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		subject := ""
		if len(args) == 2 {
			subject = strings.TrimSpace(args[1])
		}
		if subject == "" && !accountUnlink {
			return errors.New("缺少 SUBJECT；解绑请使用 --unlink")
		}
		return withAuthService(func(svc service.AuthService) error {
			if err := svc.LinkExternal(cmd.Context(), args[0], subject); err != nil {
				return describe(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "外部身份绑定已更新")
			return nil
		})
	},
}

func init() {
	accountAddCmd.Flags().StringVar(&accountAddOpts.personID, "person", "", "人员 ID（必填）")
	accountAddCmd.Flags().StringVar(&accountAddOpts.role, "role", model.RoleStudent, "角色：admin、teacher 或 student")
	_ = accountAddCmd.MarkFlagRequired("person")
	accountLinkCmd.Flags().BoolVar(&accountUnlink, "unlink", false, "解除绑定")

	accountCmd.AddCommand(accountAddCmd, accountPasswdCmd, accountLinkCmd)
}

// withAuthService 打开数据库并构造不签发令牌的 AuthService
func withAuthService(fn func(service.AuthService) error) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	svc := service.NewAuthService(repository.NewRepository(e.db), jwt.NewManager(&e.cfg.Auth), nil, nil, e.logger)
	return fn(svc)
}

// promptPassword 从终端读取密码；confirm 时要求输入两次
func promptPassword(w io.Writer, confirm bool) (string, error) {
	fmt.Fprint(w, "密码: ")
	first, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return "", err
	}
	if len(first) == 0 {
		return "", errEmptyPassword
	}
	if len(first) < 8 || len(first) > 72 {
		return "", errors.New("密码长度需在 8-72 之间")
	}
	if confirm {
		fmt.Fprint(w, "再次输入: ")
		second, err := readPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(w)
		if err != nil {
			return "", err
		}
		if string(first) != string(second) {
			return "", errors.New("两次输入的密码不一致")
		}
	}
	return string(first), nil
}

// describe 把校验错误展开为可读文本
func describe(err error) error {
	var ve *service.ValidationError
	if errors.As(err, &ve) {
		parts := make([]string, 0, len(ve.Fields))
		for field, msg := range ve.Fields {
			parts = append(parts, field+": "+msg)
		}
		return fmt.Errorf("参数错误: %s", strings.Join(parts, "; "))
	}
	return err
}
