package db

import (
	"context"

	"github.com/JMURv/device-auth/internal/config"
	"github.com/JMURv/device-auth/internal/repo"
	sq "github.com/Masterminds/squirrel"
	"github.com/opentracing/opentracing-go"
	"go.uber.org/zap"
)

type accountListQuery struct {
	countQ    string
	countArgs []any
	dataQ     string
	dataArgs  []any
}

func buildAccountListQuery(
	ctx context.Context,
	page, size int,
	filter repo.AccountFilter,
) (accountListQuery, error) {
	const op = "accounts.buildAccountListQuery.repo"

	span, _ := opentracing.StartSpanFromContext(ctx, op)
	defer span.Finish()

	where := sq.And{}
	if filter.IsActive != nil {
		where = append(where, sq.Eq{"a.is_active": *filter.IsActive})
	}

	if filter.IsOnline != nil {
		where = append(where, sq.Eq{"a.is_online": *filter.IsOnline})
	}

	if filter.Role != "" {
		where = append(where, sq.Eq{"a.role": string(filter.Role)})
	}

	countSql, countArgs, err := sq.Select("COUNT(a.id)").
		From("accounts a").
		Where(where).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		span.SetTag(config.ErrorSpanTag, true)
		zap.L().Error("failed to build count query", zap.String("op", op), zap.Error(err))
		return accountListQuery{}, err
	}

	dataSql, dataArgs, err := sq.Select(
		"a.id",
		"a.username",
		"a.role",
		"a.is_active",
		"a.expires_at",
		"a.max_devices",
		"a.is_online",
		"a.created_at",
		"a.updated_at",
		"COUNT(d.device_id) AS current_devices",
	).
		From("accounts a").
		LeftJoin("devices d ON d.account_id = a.id").
		Where(where).
		GroupBy("a.id").
		OrderBy("a.username").
		Limit(uint64(size)).
		Offset(uint64((page - 1) * size)).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		span.SetTag(config.ErrorSpanTag, true)
		zap.L().Error("failed to build data query", zap.String("op", op), zap.Error(err))
		return accountListQuery{}, err
	}

	return accountListQuery{
		countQ:    countSql,
		countArgs: countArgs,
		dataQ:     dataSql,
		dataArgs:  dataArgs,
	}, nil
}
